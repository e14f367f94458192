package web

import "embed"

// StaticFS holds the embedded static assets (stylesheet, blur validation
// script, placeholder image).
//
//go:embed static/*
var StaticFS embed.FS
