// Package script loads blockie fill handlers written in Starlark.
//
// A handler script defines plain functions:
//
//	def plural(data, index):
//	    if data["count"] == 1:
//	        return 0
//	    return 1
//
// Data files name a handler under the fill_hndl key, and Bind swaps the name
// for the loaded function before the data is filled:
//
//	handlers, err := script.LoadFile("handlers.star")
//	data, err = handlers.Bind(data)
package script
