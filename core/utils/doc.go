// Package utils provides common utility functions for the clinic-manager application.
// It holds the loose type conversions needed to read legacy record-store values,
// whose columns arrive as strings, numbers or byte slices depending on the driver.
package utils
