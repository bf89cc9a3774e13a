// Package logger provides adapters for popular logger libraries to work with blocktree's Logger interface.
//
// The adapters allow you to use your existing logger with blocktree without writing boilerplate.
// Note that the standard library's slog.Logger already implements blocktree.Logger directly.
//
// Example with zap:
//
//	import (
//	    "github.com/alexhholmes/blocktree"
//	    "github.com/alexhholmes/blocktree/logger"
//	    "go.uber.org/zap"
//	)
//
//	func main() {
//	    zapLogger, _ := zap.NewProduction()
//
//	    tree, err := blocktree.Open("index.tree", blocktree.WithLogger(logger.NewZap(zapLogger)))
//	    if err != nil {
//	        panic(err)
//	    }
//	    defer tree.Close()
//	}
package logger
