package product

import (
	"fmt"
	"strings"
)

// THREDDS routes publishing NetCDF files over OPeNDAP.
const (
	// RouteOndemand serves the tmp-storage copies produced on demand.
	RouteOndemand = "NetCDF_ondemand"

	// RouteNBS serves the operational archive.
	RouteNBS = "NBS"
)

// OPeNDAPLink returns the OPeNDAP HTML landing page for the product's
// NetCDF file under the given THREDDS route. base is the dodsC root,
// e.g. https://nbstds.met.no/thredds/dodsC.
func (p *Product) OPeNDAPLink(base, route string) string {
	return fmt.Sprintf("%s/%s/%s.html", strings.TrimRight(base, "/"), route, p.NetCDFName())
}

// OndemandLink returns the OPeNDAP link for the tmp-storage copy.
func (p *Product) OndemandLink(base string) string {
	return p.OPeNDAPLink(base, RouteOndemand)
}

// NBSLink returns the OPeNDAP link for the operational archive copy.
func (p *Product) NBSLink(base string) string {
	return p.OPeNDAPLink(base, RouteNBS)
}
