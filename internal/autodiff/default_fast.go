//go:build fastmath

package autodiff

const defaultNumerics = Fast
