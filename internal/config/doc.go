// Package config defines the format-agnostic workflow model for the
// application, along with the Loader interface for reading workflow
// definitions from various sources.
//
// The `config.Model` is the single source of truth for the `trigger`, `dag`
// and `executor` packages. Concrete loader implementations, such as for HCL
// and YAML, are provided in separate packages.
package config
