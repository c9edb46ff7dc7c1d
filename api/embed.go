// Package api 嵌入 OpenAPI 接口描述
package api

import (
	_ "embed"
	"net/http"
)

//go:embed openapi/openapi.yaml
var openapiSpec []byte

// SpecHandler 返回 OpenAPI 描述文件的 HTTP Handler
func SpecHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(openapiSpec)
	})
}
