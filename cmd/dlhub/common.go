package main

import "github.com/allypost/dlhub/internal/extract"

func extractRequest(url string) extract.Request {
	return extract.Request{URL: url}
}
