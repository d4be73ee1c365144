package main

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"github.com/a-peyrard/minimax"
	"github.com/a-peyrard/minimax/set"
	"github.com/rs/zerolog"
	"golang.org/x/tools/go/packages"
)

type (
	ServiceDefinition struct {
		FnName         string
		DescriptorName string
		Description    string
		Lifetime       minimax.Lifetime

		// Interface is the type the service is resolved as, Implementation
		// the type returned by the constructor. Both are Go source.
		Interface      string
		InterfaceID    string
		Implementation string
		ReturnsError   bool

		Params  []ParamDefinition
		Imports []ImportDefinition

		File string
		Line int
	}

	ParamDefinition struct {
		Name string
		Type string
		ID   string
	}

	// ImportDefinition is an import of the scanned file needed by the types
	// of a service.
	ImportDefinition struct {
		Name string
		Path string
	}
)

func (s ServiceDefinition) String() string {
	deps := make([]string, len(s.Params))
	for i, p := range s.Params {
		deps[i] = p.ID
	}
	return fmt.Sprintf(
		`Service: %s
Identifier: %s
Lifetime: %s
Implementation: %s
Dependencies: [%s]`,
		s.FnName,
		s.InterfaceID,
		s.Lifetime,
		s.Implementation,
		strings.Join(deps, ", "),
	)
}

// scanPackage loads the package in dir and collects its annotated services.
// Generated and test files are ignored.
func scanPackage(logger *zerolog.Logger, dir string) (pkgName string, services []ServiceDefinition, err error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return "", nil, fmt.Errorf("failed to load package in %s:\n\t%w", dir, err)
	}
	if len(pkgs) != 1 {
		return "", nil, fmt.Errorf("expected one package in %s, found %d", dir, len(pkgs))
	}

	pkg := pkgs[0]
	var loadErrors []error
	for _, e := range pkg.Errors {
		loadErrors = append(loadErrors, e)
	}
	if len(loadErrors) > 0 {
		return "", nil, fmt.Errorf("failed to parse package %s:\n\t%w", pkg.PkgPath, errors.Join(loadErrors...))
	}

	logger.Debug().Str("package", pkg.PkgPath).Msg("Scanning package")
	var problems []error
	for _, file := range pkg.Syntax {
		filename := pkg.Fset.Position(file.Pos()).Filename
		if strings.HasSuffix(filename, "_gen.go") || strings.HasSuffix(filename, "_test.go") {
			continue
		}
		found, err := collectServices(logger, pkg.Fset, file)
		if err != nil {
			problems = append(problems, err)
		}
		services = append(services, found...)
	}
	return pkg.Name, services, errors.Join(problems...)
}

// collectServices returns the services declared in file, in source order.
func collectServices(logger *zerolog.Logger, fset *token.FileSet, file *ast.File) ([]ServiceDefinition, error) {
	var (
		services []ServiceDefinition
		problems []error
	)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil || !hasServiceAnnotation(fn.Doc.Text()) {
			continue
		}

		logger := logger.With().Str("service", fn.Name.Name).Logger()
		logger.Debug().Msg("=> Found service")

		service, err := newServiceDefinition(&logger, fset, file, fn)
		if err != nil {
			position := fset.Position(fn.Pos())
			problems = append(problems, fmt.Errorf("%s:%d: invalid service %s:\n\t%w", filepath.Base(position.Filename), position.Line, fn.Name.Name, err))
			continue
		}
		services = append(services, service)
	}
	return services, errors.Join(problems...)
}

func newServiceDefinition(logger *zerolog.Logger, fset *token.FileSet, file *ast.File, fn *ast.FuncDecl) (ServiceDefinition, error) {
	if fn.Recv != nil {
		return ServiceDefinition{}, fmt.Errorf("methods cannot be services")
	}
	if fn.Type.TypeParams != nil && len(fn.Type.TypeParams.List) > 0 {
		return ServiceDefinition{}, fmt.Errorf("generic functions cannot be services")
	}

	results := fn.Type.Results
	if results == nil || results.NumFields() == 0 || results.NumFields() > 2 {
		return ServiceDefinition{}, fmt.Errorf("constructor must either return the instance and an error, or just the instance")
	}
	resultTypes := make([]ast.Expr, 0, 2)
	for _, field := range results.List {
		count := max(len(field.Names), 1)
		for range count {
			resultTypes = append(resultTypes, field.Type)
		}
	}
	returnsError := len(resultTypes) == 2
	if returnsError && types.ExprString(resultTypes[1]) != "error" {
		return ServiceDefinition{}, fmt.Errorf("if constructor returns two elements, the second one must be an error")
	}

	annotation := parseServiceAnnotation(logger, fn.Doc.Text())
	lifetime, err := annotation.Lifetime()
	if err != nil {
		return ServiceDefinition{}, err
	}

	ifaceExpr := resultTypes[0]
	if raw, found := annotation.Interface(); found {
		if ifaceExpr, err = parseTypeExpr(raw); err != nil {
			return ServiceDefinition{}, err
		}
	}
	ifaceID, err := renderIdentifier(ifaceExpr)
	if err != nil {
		return ServiceDefinition{}, err
	}

	descriptorName, found := annotation.Descriptor()
	if !found {
		descriptorName = fn.Name.Name + "Descriptor"
	}

	params, err := paramDefinitions(logger, fset, file, fn.Type.Params)
	if err != nil {
		return ServiceDefinition{}, err
	}

	used := []ast.Expr{ifaceExpr, resultTypes[0]}
	for _, field := range fn.Type.Params.List {
		used = append(used, field.Type)
	}
	imports, err := importsFor(file, used...)
	if err != nil {
		return ServiceDefinition{}, err
	}

	position := fset.Position(fn.Pos())
	return ServiceDefinition{
		FnName:         fn.Name.Name,
		DescriptorName: descriptorName,
		Description:    annotation.description,
		Lifetime:       lifetime,
		Interface:      types.ExprString(ifaceExpr),
		InterfaceID:    ifaceID,
		Implementation: types.ExprString(resultTypes[0]),
		ReturnsError:   returnsError,
		Params:         params,
		Imports:        imports,
		File:           filepath.Base(position.Filename),
		Line:           position.Line,
	}, nil
}

func paramDefinitions(logger *zerolog.Logger, fset *token.FileSet, file *ast.File, fields *ast.FieldList) ([]ParamDefinition, error) {
	if fields == nil {
		return nil, nil
	}

	var params []ParamDefinition
	for idx, field := range fields.List {
		if _, variadic := field.Type.(*ast.Ellipsis); variadic {
			return nil, fmt.Errorf("variadic constructors are not supported")
		}

		next := token.NoPos
		if idx+1 < len(fields.List) {
			next = fields.List[idx+1].Pos()
		}
		id, found := parseInjectAnnotation(findCommentForParam(fset, file, field, next)).ID()
		if !found {
			derived, err := renderIdentifier(field.Type)
			if err != nil {
				return nil, fmt.Errorf("failed to derive the identifier of parameter %s:\n\t%w", types.ExprString(field.Type), err)
			}
			id = derived
		}

		names := make([]string, 0, len(field.Names))
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
		if len(names) == 0 {
			names = append(names, "")
		}
		for _, name := range names {
			logger.Debug().Str("param", name).Str("identifier", id).Msg("Parameter resolved")
			params = append(params, ParamDefinition{
				Name: name,
				Type: types.ExprString(field.Type),
				ID:   id,
			})
		}
	}
	return params, nil
}

// findCommentForParam returns the comment following param on its line, if
// any. next is the position of the following parameter, comments after it
// belong to that parameter.
func findCommentForParam(fset *token.FileSet, file *ast.File, param *ast.Field, next token.Pos) string {
	paramLine := fset.Position(param.Pos()).Line

	for _, commentGroup := range file.Comments {
		for _, comment := range commentGroup.List {
			if comment.Pos() < param.End() || (next.IsValid() && comment.Pos() > next) {
				continue
			}
			if fset.Position(comment.Pos()).Line == paramLine {
				return comment.Text
			}
		}
	}
	return ""
}

// importsFor resolves the package qualifiers used in exprs against the
// imports of file.
func importsFor(file *ast.File, exprs ...ast.Expr) ([]ImportDefinition, error) {
	byName := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		name := packageNameOf(importPath)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		byName[name] = importPath
	}

	var (
		imports []ImportDefinition
		seen    = set.New[string]()
		missing error
	)
	for _, expr := range exprs {
		ast.Inspect(expr, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			qualifier, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			importPath, found := byName[qualifier.Name]
			if !found {
				missing = errors.Join(missing, fmt.Errorf("package %s is not imported", qualifier.Name))
				return false
			}
			if seen.Add(importPath) {
				imports = append(imports, ImportDefinition{Name: qualifier.Name, Path: importPath})
			}
			return false
		})
	}
	return imports, missing
}

// packageNameOf guesses the name of a package from its import path, dropping
// major version suffixes: "gopkg.in/yaml.v3" gives "yaml",
// "github.com/go-playground/validator/v10" gives "validator".
func packageNameOf(importPath string) string {
	elems := strings.Split(importPath, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	if dot := strings.Index(name, ".v"); dot > 0 {
		name = name[:dot]
	}
	return strings.TrimPrefix(name, "go-")
}

func isMajorVersion(elem string) bool {
	if len(elem) < 2 || elem[0] != 'v' {
		return false
	}
	for _, r := range elem[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
