// Package render serializes a workflow graph into an Amazon States Language
// definition. Rendering is pure and deterministic: states appear in chain
// order and parameter keys in the order the builder declared them.
package render
