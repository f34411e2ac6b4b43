package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/gobject-runtime/abi"
	"github.com/wippyai/gobject-runtime/file"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/object"
	"github.com/wippyai/gobject-runtime/resource"
	"github.com/wippyai/gobject-runtime/signal"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	ifaceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			Italic(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// registerBuiltins makes sure the types linked into this binary are in the
// registry before it is listed.
func registerBuiltins() {
	object.Type()
	object.InitiallyUnownedType()
	file.Type()
	file.LocalType()
}

func typeLabel(t gtype.Type) string {
	var tags []string
	if t.IsAbstract() {
		tags = append(tags, "abstract")
	}
	if t.IsFinal() {
		tags = append(tags, "final")
	}
	label := typeStyle.Render(t.Name())
	if t.IsInterface() {
		label = ifaceStyle.Render(t.Name())
	}
	if len(tags) > 0 {
		label += " " + keyStyle.Render("("+strings.Join(tags, ", ")+")")
	}
	if ifaces := t.DirectInterfaces(); len(ifaces) > 0 {
		names := make([]string, len(ifaces))
		for i, it := range ifaces {
			names[i] = it.Name()
		}
		label += " " + ifaceStyle.Render("implements "+strings.Join(names, ", "))
	}
	return label
}

func typeTree(t gtype.Type) *tree.Tree {
	node := tree.Root(typeLabel(t))
	children := t.Children()
	sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })
	for _, c := range children {
		if len(c.Children()) == 0 {
			node.Child(typeLabel(c))
			continue
		}
		node.Child(typeTree(c))
	}
	return node
}

// renderTree prints the class hierarchy rooted at GObject followed by the
// registered interfaces.
func renderTree() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Types"))
	b.WriteString("\n")
	b.WriteString(typeTree(object.Type()).String())
	b.WriteString("\n")

	var ifaces []string
	for _, t := range gtype.All() {
		if t.IsInterface() && !t.IsFundamental() {
			ifaces = append(ifaces, typeLabel(t))
		}
	}
	if len(ifaces) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Interfaces"))
		b.WriteString("\n")
		b.WriteString(tree.New().Child(toAny(ifaces)...).String())
		b.WriteString("\n")
	}
	return b.String()
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// renderType prints ancestry, interfaces, properties and signals of the
// named type.
func renderType(name string) (string, error) {
	t := gtype.FromName(name)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown type %q", name)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Name()))
	b.WriteString("\n\n")

	anc := t.Ancestors()
	names := make([]string, len(anc))
	for i, a := range anc {
		names[i] = a.Name()
	}
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("ancestry:"), strings.Join(names, " → "))
	if ifaces := t.Interfaces(); len(ifaces) > 0 {
		names = names[:0]
		for _, it := range ifaces {
			names = append(names, it.Name())
		}
		fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("interfaces:"), strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("flags:"), typeLabel(t))

	if c := object.ClassOf(t); c != nil {
		props := c.ListProperties()
		if len(props) > 0 {
			b.WriteString("\n")
			b.WriteString(keyStyle.Render("properties:"))
			b.WriteString("\n")
			for _, p := range props {
				fmt.Fprintf(&b, "  %s %s %s\n", p.Name(), typeStyle.Render(p.ValueType().Name()), keyStyle.Render(p.Flags().String()))
			}
		}
	}

	var sigs []string
	for _, a := range anc {
		for _, id := range signal.ListIDs(a) {
			q, ok := signal.QueryID(id)
			if !ok {
				continue
			}
			params := make([]string, len(q.Params))
			for i, p := range q.Params {
				params[i] = p.Name()
			}
			sig := fmt.Sprintf("  %s(%s)", q.Name, strings.Join(params, ", "))
			if q.HasReturn() {
				sig += " → " + q.Return.Name()
			}
			if a != t {
				sig += " " + keyStyle.Render("from "+a.Name())
			}
			sigs = append(sigs, sig)
		}
	}
	if len(sigs) > 0 {
		b.WriteString("\n")
		b.WriteString(keyStyle.Render("signals:"))
		b.WriteString("\n")
		b.WriteString(strings.Join(sigs, "\n"))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// renderPath describes path through the GFile interface of the local file
// type.
func renderPath(ctx context.Context, path string) (string, error) {
	f := file.NewForPath(path)
	defer f.Unref()

	var b strings.Builder
	b.WriteString(titleStyle.Render(f.ParseName()))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("uri:"), f.URI())
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("type:"), typeStyle.Render(f.Type().Name()))
	fmt.Fprintf(&b, "%s %08x\n", keyStyle.Render("hash:"), f.Hash())

	info, err := f.QueryInfo(ctx, "standard::*,time::modified,unix::mode,etag::value", file.QueryInfoNone)
	if err != nil {
		return "", err
	}
	b.WriteString("\n")
	for _, attr := range info.ListAttributes("") {
		v, _ := info.Attribute(attr)
		fmt.Fprintf(&b, "  %s %v\n", keyStyle.Render(attr+":"), v)
	}

	if fs, err := f.QueryFilesystemInfo(ctx, "filesystem::*"); err == nil {
		b.WriteString("\n")
		for _, attr := range fs.ListAttributes("") {
			v, _ := fs.Attribute(attr)
			fmt.Fprintf(&b, "  %s %v\n", keyStyle.Render(attr+":"), v)
		}
	}

	if info.FileType() == file.TypeDirectory {
		usage, err := f.MeasureDiskUsage(ctx, file.MeasureApparentSize, nil)
		if err != nil {
			fmt.Fprintf(&b, "\n%s\n", errorStyle.Render("disk usage: "+err.Error()))
		} else {
			fmt.Fprintf(&b, "\n%s %d bytes in %d dirs, %d files\n",
				keyStyle.Render("disk usage:"), usage.Size, usage.Dirs, usage.Files)
		}
	}
	return b.String(), nil
}

// renderExports instantiates the host module in a scratch runtime and
// lists its function signatures.
func renderExports(ctx context.Context) (string, error) {
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	table := resource.NewTable()
	defer table.Close()

	mod, err := abi.NewHostModule(ctx, rt, table, abi.DefaultOptions())
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Host module " + mod.Name()))
	b.WriteString("\n\n")
	defs := mod.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := defs[name]
		params := make([]string, len(def.ParamTypes()))
		for i, p := range def.ParamTypes() {
			params[i] = api.ValueTypeName(p)
		}
		results := make([]string, len(def.ResultTypes()))
		for i, r := range def.ResultTypes() {
			results[i] = api.ValueTypeName(r)
		}
		fmt.Fprintf(&b, "  %s(%s) → (%s)\n", typeStyle.Render(name), strings.Join(params, ", "), strings.Join(results, ", "))
	}
	return b.String(), nil
}
