package main

import (
	"bytes"
	"fmt"
	"go/format"
	"path"
	"slices"
	"strings"
	"text/template"

	"github.com/a-peyrard/minimax/set"
)

const minimaxImportPath = "github.com/a-peyrard/minimax"

var codeTemplate = template.Must(template.New("code").Parse(`// Code generated by minimaxgen. DO NOT EDIT.

package {{ .Package }}

import (
{{- range .StdImports }}
	{{ if .Alias }}{{ .Alias }} {{ end }}"{{ .Path }}"
{{- end }}
{{ range .Imports }}
	{{ if .Alias }}{{ .Alias }} {{ end }}"{{ .Path }}"
{{- end }}
)

var (
{{- range .Identifiers }}
	{{ .Var }} = minimax.NewIdentifier({{ printf "%q" .Name }})
{{- end }}
)
{{ range .Services }}
// {{ .DescriptorName }} describes the {{ .Lifetime }} {{ .InterfaceID }} service built by {{ .FnName }}.
func {{ .DescriptorName }}() (*minimax.Descriptor, error) {
	return minimax.Service[{{ .Interface }}, {{ .Implementation }}](
		{{ .IDVar }},
		minimax.{{ .LifetimeConst }},
		func(r minimax.Resolver) (service {{ .Implementation }}, err error) {
{{- range .Params }}
			{{ .Arg }}, err := minimax.Get[{{ .Type }}](r, {{ .Var }})
			if err != nil {
				return service, err
			}
{{- end }}
			return {{ .FnName }}({{ .Args }}){{ if not .ReturnsError }}, nil{{ end }}
		},
{{- if .Dependencies }}
		minimax.DependsOn({{ .Dependencies }}),
{{- end }}
{{- if .Description }}
		minimax.Description({{ printf "%q" .Description }}),
{{- end }}
	)
}
{{ end }}
// RegisterServices registers every service of the package in registry.
func RegisterServices(registry *minimax.Registry) error {
	for _, describe := range []func() (*minimax.Descriptor, error){
{{- range .Services }}
		{{ .DescriptorName }},
{{- end }}
	} {
		descriptor, err := describe()
		if err != nil {
			return fmt.Errorf("failed to register services of package {{ .Package }}:\n\t%w", err)
		}
		registry.Register(descriptor)
	}
	return nil
}
`))

type (
	codeView struct {
		Package     string
		StdImports  []importView
		Imports     []importView
		Identifiers []identifierView
		Services    []serviceView
	}

	importView struct {
		Alias string
		Path  string
	}

	identifierView struct {
		Var  string
		Name string
	}

	serviceView struct {
		ServiceDefinition
		IDVar         string
		LifetimeConst string
		Params        []paramView
		Args          string
		Dependencies  string
	}

	paramView struct {
		Arg  string
		Type string
		Var  string
	}
)

// renderCode generates the formatted source of the descriptors of services.
func renderCode(pkgName string, services []ServiceDefinition) ([]byte, error) {
	view, err := newCodeView(pkgName, services)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := codeTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to execute template:\n\t%w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code:\n\t%w\n%s", err, buf.String())
	}
	return formatted, nil
}

func newCodeView(pkgName string, services []ServiceDefinition) (codeView, error) {
	view := codeView{
		Package:    pkgName,
		StdImports: []importView{{Path: "fmt"}},
		Imports:    []importView{{Path: minimaxImportPath}},
	}

	var (
		seenImports  = set.New(minimaxImportPath, "fmt")
		identifiers  = make(map[string]string)
		descriptors  = set.New[string]()
		variableName = func(id string) (string, error) {
			variable := identifierVariable(id)
			if existing, found := identifiers[variable]; found && existing != id {
				return "", fmt.Errorf("identifiers %q and %q both map to the variable %s", existing, id, variable)
			}
			identifiers[variable] = id
			return variable, nil
		}
	)

	for _, service := range services {
		if !descriptors.Add(service.DescriptorName) {
			return codeView{}, fmt.Errorf("several services use the descriptor name %s, set descriptor= on one of them", service.DescriptorName)
		}

		for _, imp := range service.Imports {
			if !seenImports.Add(imp.Path) {
				continue
			}
			alias := ""
			if imp.Name != path.Base(imp.Path) {
				alias = imp.Name
			}
			if isStandardImport(imp.Path) {
				view.StdImports = append(view.StdImports, importView{Alias: alias, Path: imp.Path})
			} else {
				view.Imports = append(view.Imports, importView{Alias: alias, Path: imp.Path})
			}
		}

		idVar, err := variableName(service.InterfaceID)
		if err != nil {
			return codeView{}, err
		}

		sv := serviceView{
			ServiceDefinition: service,
			IDVar:             idVar,
			LifetimeConst:     lifetimeConst(service.Lifetime.String()),
		}
		args := make([]string, len(service.Params))
		deps := make([]string, len(service.Params))
		for i, param := range service.Params {
			paramVar, err := variableName(param.ID)
			if err != nil {
				return codeView{}, err
			}
			args[i] = fmt.Sprintf("p%d", i)
			deps[i] = paramVar
			sv.Params = append(sv.Params, paramView{Arg: args[i], Type: param.Type, Var: paramVar})
		}
		sv.Args = strings.Join(args, ", ")
		sv.Dependencies = strings.Join(deps, ", ")
		view.Services = append(view.Services, sv)
	}

	byPath := func(a, b importView) int {
		return strings.Compare(a.Path, b.Path)
	}
	slices.SortFunc(view.StdImports, byPath)
	slices.SortFunc(view.Imports, byPath)

	for variable, id := range identifiers {
		view.Identifiers = append(view.Identifiers, identifierView{Var: variable, Name: id})
	}
	slices.SortFunc(view.Identifiers, func(a, b identifierView) int {
		return strings.Compare(a.Var, b.Var)
	})
	return view, nil
}

func lifetimeConst(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// isStandardImport reports whether importPath belongs to the standard library,
// whose first path element has no dot.
func isStandardImport(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
