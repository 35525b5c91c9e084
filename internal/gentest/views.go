// Package gentest holds templates compiled ahead of time by typhoonc. The
// generated views_tp.go is checked in and compared against a fresh
// generation by the codegen tests.
package gentest

//go:generate go run github.com/typhoon/typhoon-go/cmd/typhoonc gen views.go

//typhoon:template App()
const app = `div.class("app"){ h1.text("Hi") }`

//typhoon:template Counter(count int, inc func())
const counter = `div {
	span.text(count).id("n")
	button.onclick(inc) { "+" }
}`

//typhoon:template Page(child func() typhoon.Node)
const page = `div { h1.text("x") (child()) }`
