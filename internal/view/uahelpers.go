// internal/view/uahelpers.go
//
// Request-metadata template helpers.  Each takes the *RequestInfo that
// requestinfo.Enrich stored and tolerates nil, so a page rendered outside
// the middleware (tests, the CLI) still works.
package view

import (
	"html/template"

	"github.com/yanizio/adept-booking/internal/requestinfo"
)

// uaFuncMap returns helpers keyed off *requestinfo.RequestInfo.
func uaFuncMap() template.FuncMap {
	return template.FuncMap{
		"lang": func(i *requestinfo.RequestInfo) string {
			if i == nil || i.UA.PrimaryLang == "" {
				return "en"
			}
			return i.UA.PrimaryLang
		},
		"device": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.UA.Device
		},
		"country": func(i *requestinfo.RequestInfo) string {
			if i == nil {
				return ""
			}
			return i.Geo.CountryISO
		},
	}
}
