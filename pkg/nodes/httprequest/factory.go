package httprequest

import (
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/nodes"
	"github.com/dukex/fluxrt/pkg/schema"
)

var Schema = schema.NewBuilder("httprequest").
	String("url", "URL template").
	Enum("method", "HTTP method", "GET", "POST", "PUT", "PATCH", "DELETE").
	String("body", "body template, sent as JSON").
	Integer("timeout", "timeout in seconds").
	Integer("retries", "retries on network and server errors").
	Boolean("cache", "serve identical requests from the module cache").
	MustBuild()

func NewFactory() *nodes.Factory {
	return &nodes.Factory{
		Module:     "httprequest",
		Summary:    "Performs an HTTP request for each input",
		Descriptor: Schema,
		Data: map[string]any{
			"url":     "",
			"method":  "GET",
			"body":    "",
			"timeout": 30,
			"retries": 0,
			"cache":   false,
		},
		New: func(params module.Params) (module.Node, error) {
			return New(params)
		},
	}
}
