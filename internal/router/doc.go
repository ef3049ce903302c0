// Package router decodes inbound push frames and delivers updates to
// per-category handlers.
//
// Both the push channel and the pull path produce Message values; a single
// dispatcher feeds them to Router.Dispatch in arrival order.
package router
