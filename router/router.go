// Package router swaps the content of a container element whenever the
// location hash changes.
package router

import (
	"errors"
	"fmt"
	"log"

	"github.com/typhoon/typhoon-go"
	"github.com/typhoon/typhoon-go/store"
)

// DefaultHash is the hash an empty location normalizes to.
const DefaultHash = "#/"

// ErrNoContainer is returned for hosts that cannot clear children.
var ErrNoContainer = errors.New("host does not implement typhoon.Container")

// Route maps an exact hash to the function rendering its content.
type Route struct {
	Path   string
	Render func() (typhoon.Node, error)
}

// Location reports the current hash and announces changes.
type Location interface {
	Hash() string
	Subscribe(fn func())
}

// HashLocation is a Location held in a reactive cell.
type HashLocation struct {
	cell *store.Cell[string]
}

// NewHashLocation creates a location starting at initial.
func NewHashLocation(initial string) *HashLocation {
	return &HashLocation{cell: store.New(initial)}
}

// Hash returns the current hash, normalizing "" to DefaultHash.
func (l *HashLocation) Hash() string {
	if h := l.cell.Get(); h != "" {
		return h
	}
	return DefaultHash
}

// Subscribe implements Location
func (l *HashLocation) Subscribe(fn func()) {
	l.cell.Subscribe(fn)
}

// Navigate changes the hash and notifies subscribers.
func (l *HashLocation) Navigate(hash string) {
	l.cell.Set(hash)
}

type host interface {
	typhoon.Host
	typhoon.Container
}

// Router renders the route matching its location into a container.
type Router struct {
	host    host
	loc     Location
	routes  []Route
	current string
	root    typhoon.Node
	err     error
}

// New creates a router. The host must also implement typhoon.Container.
func New(h typhoon.Host, loc Location, routes []Route) (*Router, error) {
	hc, ok := h.(host)
	if !ok {
		return nil, ErrNoContainer
	}
	for i, r := range routes {
		if r.Render == nil {
			return nil, fmt.Errorf("route %d (%s): nil render function", i, r.Path)
		}
	}
	return &Router{host: hc, loc: loc, routes: routes}, nil
}

// Mount creates the container, renders the current route into it and
// re-renders on every location change. It returns the container.
func (r *Router) Mount() (typhoon.Node, error) {
	root, err := r.host.CreateElement("div")
	if err != nil {
		return nil, err
	}
	r.root = root
	if err := r.render(); err != nil {
		return nil, err
	}
	r.loc.Subscribe(func() {
		if err := r.render(); err != nil {
			log.Printf("router: rendering %s: %v", r.loc.Hash(), err)
		}
	})
	return root, nil
}

// Current returns the path of the route last rendered.
func (r *Router) Current() string {
	return r.current
}

// Err returns the error of the last render, if any.
func (r *Router) Err() error {
	return r.err
}

// Match returns the route for hash: the exact match, else the first route.
func (r *Router) Match(hash string) (Route, bool) {
	if hash == "" {
		hash = DefaultHash
	}
	for _, route := range r.routes {
		if route.Path == hash {
			return route, true
		}
	}
	if len(r.routes) > 0 {
		return r.routes[0], true
	}
	return Route{}, false
}

func (r *Router) render() error {
	r.err = r.doRender()
	return r.err
}

func (r *Router) doRender() error {
	if err := r.host.ClearChildren(r.root); err != nil {
		return err
	}
	route, ok := r.Match(r.loc.Hash())
	if !ok {
		r.current = ""
		return nil
	}
	n, err := route.Render()
	if err != nil {
		return err
	}
	r.current = route.Path
	if n == nil {
		return nil
	}
	return r.host.AppendChild(r.root, n)
}
