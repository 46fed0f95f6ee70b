// Package build runs a complete package build for the CLI and watch mode.
//
// A build resolves the SDK before anything is written, serializes on the
// project lock, scaffolds the project, regenerates the manifest and then
// runs the pipeline stages. Metrics and the report are written afterwards
// when requested. All execution paths route through Service.
package build
