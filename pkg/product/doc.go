// Package product parses Sentinel product names and derives the file
// and URL layout the rest of the service shares.
//
// A Sentinel name like
//
//	S1A_EW_GRDM_1SDH_20260815T043043_20260815T043143_054321_069D1A_4F21
//
// encodes the platform type (S1A), the acquisition mode (EW, Sentinel-1
// only) and the sensing start date (20260815T...). Those three fields
// place the product's NetCDF file in the archive tree
// (S1A/2026/08/15/EW) and on the THREDDS server.
//
// Only Sentinel-1 and Sentinel-2 products are supported; everything
// else fails Parse with ErrUnsupportedType.
package product
