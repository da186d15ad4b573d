// Package app wires the trait model, scripting engine, and archive store into
// a runnable demonstration: it declares a small set of modules, validates
// their trait agreements, seeds a population, and evaluates expressions
// against it. It is decoupled from any specific entrypoint like a CLI.
package app
