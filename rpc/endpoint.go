package rpc

import (
	"net/http"
)

// Endpoint names one remote procedure.
type Endpoint struct {
	// Class is the first path segment.
	Class string
	// Method is the second path segment.
	Method string
	// HTTPMethod is GET or POST. Defaults to GET.
	HTTPMethod string
}

// GET returns a GET endpoint.
func GET(class, method string) Endpoint {
	return Endpoint{Class: class, Method: method, HTTPMethod: http.MethodGet}
}

// POST returns a POST endpoint.
func POST(class, method string) Endpoint {
	return Endpoint{Class: class, Method: method, HTTPMethod: http.MethodPost}
}

// Path returns "/<Class>/<Method>".
func (e Endpoint) Path() string {
	return "/" + e.Class + "/" + e.Method
}

func (e Endpoint) method() string {
	if e.HTTPMethod == "" {
		return http.MethodGet
	}
	return e.HTTPMethod
}

// String returns "<METHOD> /<Class>/<Method>".
func (e Endpoint) String() string {
	return e.method() + " " + e.Path()
}
