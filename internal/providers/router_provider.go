package providers

import (
	"net/http"

	"habitd/internal/structures"
)

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	Put(url string, handler http.Handler)
	Delete(url string, handler http.Handler)
	GetRoutes() []structures.Route
}

// RouterProvider collects method-guarded routes. Registering several
// methods on the same URL chains the guards, falling through until the
// method matches.
type RouterProvider struct {
	routes   []structures.Route
	handlers map[string]map[string]http.Handler
}

func (rp *RouterProvider) add(method, url string, handler http.Handler) {
	if rp.handlers == nil {
		rp.handlers = make(map[string]map[string]http.Handler)
	}
	if rp.handlers[url] == nil {
		rp.handlers[url] = make(map[string]http.Handler)
		u := url
		rp.routes = append(rp.routes, structures.Route{
			Url: u,
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if h, ok := rp.handlers[u][r.Method]; ok {
					h.ServeHTTP(w, r)
					return
				}
				http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			}),
		})
	}
	rp.handlers[url][method] = handler
}

func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.add(http.MethodGet, url, handler)
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.add(http.MethodPost, url, handler)
}

func (rp *RouterProvider) Put(url string, handler http.Handler) {
	rp.add(http.MethodPut, url, handler)
}

func (rp *RouterProvider) Delete(url string, handler http.Handler) {
	rp.add(http.MethodDelete, url, handler)
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{}
}
