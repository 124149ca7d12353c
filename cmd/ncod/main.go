// NetCDF on-demand (ncod) serves Copernicus satellite products as NetCDF
// files over an OGC API Processes interface.
//
// The service accepts a list of SAFE product names, downloads the products
// that are not already available as NetCDF from the Colhub archive, converts
// them with the external safe_to_netcdf tool and answers with OPeNDAP links
// to the results. Requesters can optionally be notified by email when their
// batch finishes. Scheduled sweeps keep the tmp, operational and log storage
// within their retention windows.
//
// Usage:
//
//	# Start the API server with the default configuration
//	ncod serve
//
//	# Start with a custom configuration file
//	ncod serve --config /etc/ncod/config.yml
//
//	# Check the configuration and print the resolved retention targets
//	ncod validate
//
//	# Report what a retention sweep would delete, without deleting
//	ncod sweep --dry-run
//
//	# Convert products from the command line, bypassing the API
//	ncod convert --products S1A_...,S2B_...
//
//	# Regenerate the OpenAPI document
//	ncod openapi
//
//	# Show version information
//	ncod version
//
// For complete documentation, see:
// https://github.com/NasjonaltBakkeSegment/NetCDF-on-demand
package main

func main() {
	Execute()
}
