// Package pipeline turns requested Sentinel product names into served
// NetCDF files.
//
// For each product the runner first looks for a NetCDF that already
// exists. A file in the operational archive young enough to outlive the
// tmp retention window is copied into tmp storage and served over the
// on-demand OPeNDAP route; an older one is served from the NBS route it
// already lives on. An existing tmp copy is touched so its retention
// window restarts. Only when nothing is found does the runner download
// the SAFE archive from the data hub, unpack it, and run the external
// converter.
//
// # Stages
//
// The download, unpack and convert stages run in order and stop at the
// first failure. Cleanup always runs afterwards and removes every tmp
// entry carrying the product name except its NetCDF file, so aborted
// runs never leave archives or SAFE trees behind. Whether the product
// succeeded is decided by a final check for the NetCDF on disk, not by
// the stages' return values.
//
// # Batch Behaviour
//
// Run processes names independently. A name that does not begin with S1
// or S2 is skipped and appears in neither the links nor the failures of
// the Result. A failing product is recorded in Result.Failures and the
// batch continues; Run itself returns an error only when the batch
// cannot proceed at all.
//
// # Conversion
//
// Converter is an interface so tests can substitute a fake. The
// production implementation, ExecConverter, shells out to the SAFE to
// NetCDF conversion command with a configurable timeout and compression
// level, and forwards the command's output to the run log.
package pipeline
