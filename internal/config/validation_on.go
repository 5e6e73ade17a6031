//go:build validation

package config

const enableValidationLayers = true
