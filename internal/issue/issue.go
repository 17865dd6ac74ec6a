// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalogued issue.
type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestParseErrorId
	ConfigLoadFailedId
	FetchFailedId
	IntegrityMismatchId
	ActivationFailedId
	ProbeUnresolvedId
	PermissionDeniedId
)

type (
	// MarkdownMsg is issue guidance written in Markdown.
	MarkdownMsg string

	// HttpLink is a documentation or reference URL.
	HttpLink string

	// Issue is a catalogued failure with Markdown remediation guidance.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue guidance for a terminal. stylePath is a glamour
// style name ("dark", "light", "notty") or a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No requirements manifest found!

rtenv reads the requirements of a component from a manifest file.

## Things you can try:
- Pass the manifest explicitly:
~~~
$ rtenv provision path/to/rtenv.cue
~~~

- Create an ` + "`rtenv.cue`" + ` next to your component:
~~~cue
component: "report-viewer"
assets: [{
	url:  "https://cdn.example.com/fonts/inter.ttf"
	hash: "2fd4e1c67a2d28fced849ee1bb76e7391b93eb12"
}]
~~~`,
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to parse the requirements manifest!

## Common issues:
- Unknown field names (manifests are closed)
- A ` + "`dependency`" + ` whose ` + "`coordinate`" + ` is not in ` + "`group:artifact:version`" + ` form
- Asset hashes that are not 40 hexadecimal characters

## Things you can try:
- Check the error message above for the offending field
- Manifests may be written as .cue, .toml, .yaml or .yml; the extension selects the parser`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Configuration file locations:
- Linux: ~/.config/rtenv/config.cue
- macOS: ~/Library/Application Support/rtenv/config.cue
- Windows: %APPDATA%\rtenv\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ rtenv config init
~~~

- Inspect the effective configuration:
~~~
$ rtenv config show
~~~

- Override single values with RTENV_* environment variables, e.g. ` + "`RTENV_HTTP_TIMEOUT=2m`",
	}

	fetchFailedIssue = &Issue{
		id: FetchFailedId,
		mdMsg: `
# Download failed!

A requirement could not be downloaded from any configured location.

## Things you can try:
- Check network access to the asset URL or repository
- Add a mirror repository in your configuration:
~~~cue
repositories: ["https://mirror.example.com/maven2"]
~~~

- Run ` + "`rtenv status`" + ` to see which requirements are still pending`,
	}

	integrityMismatchIssue = &Issue{
		id: IntegrityMismatchId,
		mdMsg: `
# Integrity check failed!

Downloaded content did not match its expected digest and was discarded.
Nothing at the target location was modified.

## Things you can try:
- Recompute the expected digest of a known-good copy:
~~~
$ rtenv hash path/to/file
~~~

- Make sure the manifest hash refers to the same version as the URL`,
	}

	activationFailedIssue = &Issue{
		id: ActivationFailedId,
		mdMsg: `
# Library activation failed!

The library was downloaded and verified but could not be made available.

## Things you can try:
- Select a different activation mode:
~~~cue
activation: "index"  // or "auto", "plugin", "unsupported"
~~~

- Plugins must be built with the same Go toolchain as the host`,
	}

	probeUnresolvedIssue = &Issue{
		id: ProbeUnresolvedId,
		mdMsg: `
# Probe symbol still unresolved!

A library was activated but its probe symbol is not available afterwards.

## Things you can try:
- Check that the ` + "`probe`" + ` names a class or capability shipped by the library
- If the host already provides the capability, list it under ` + "`provides`" + ` in your configuration`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

rtenv could not write below the provisioning root.

## Things you can try:
- Check the permissions of the root directory
- Choose another root with ` + "`--root`" + ` or ` + "`RTENV_ROOT`",
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():   manifestNotFoundIssue,
		manifestParseErrorIssue.Id(): manifestParseErrorIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		fetchFailedIssue.Id():        fetchFailedIssue,
		integrityMismatchIssue.Id():  integrityMismatchIssue,
		activationFailedIssue.Id():   activationFailedIssue,
		probeUnresolvedIssue.Id():    probeUnresolvedIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
