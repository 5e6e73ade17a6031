//go:build !validation

package config

const enableValidationLayers = false
