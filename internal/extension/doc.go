// Package extension implements the extension lifecycle: resolving and
// downloading platform-specific release artifacts, installing them
// atomically into the local extension directory, indexing installed
// extensions by their manifests, and dispatching subcommands to extension
// processes.
//
// Extensions are independent executables, one directory each under the
// extensions root, owning an extension.yml manifest and an entry point
// binary named after the extension. Installs and upgrades replace the
// whole directory in a single rename, so a concurrent scan or invocation
// sees either the fully-old or fully-new version, never a mix.
package extension
