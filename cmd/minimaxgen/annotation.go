package main

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/a-peyrard/minimax"
	"github.com/rs/zerolog"
)

const (
	serviceAnnotationTag = "@service"
	injectAnnotationTag  = "@inject"
)

var (
	propertiesPattern = regexp.MustCompile(`(\w+)=(?:"([^"]*)"|([^\s"]+))`)

	knownServiceProperties = []string{"interface", "lifetime", "descriptor"}
)

type (
	ServiceAnnotation struct {
		description string
		properties  map[string]string
	}

	InjectAnnotation struct {
		properties map[string]string
	}
)

func (a ServiceAnnotation) Interface() (string, bool) {
	iface, found := a.properties["interface"]
	return iface, found && iface != ""
}

// Lifetime defaults to singleton when the property is absent.
func (a ServiceAnnotation) Lifetime() (minimax.Lifetime, error) {
	raw, found := a.properties["lifetime"]
	if !found {
		return minimax.Singleton, nil
	}
	return minimax.ParseLifetime(raw)
}

func (a ServiceAnnotation) Descriptor() (string, bool) {
	name, found := a.properties["descriptor"]
	return name, found && name != ""
}

func (a ServiceAnnotation) UnknownProperties() []string {
	var unknown []string
	for key := range a.properties {
		if !slices.Contains(knownServiceProperties, key) {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)
	return unknown
}

func (a InjectAnnotation) ID() (string, bool) {
	id, found := a.properties["id"]
	return id, found && id != ""
}

func (a InjectAnnotation) String() string {
	return fmt.Sprintf("InjectAnnotation(%v)", a.properties)
}

func hasServiceAnnotation(docText string) bool {
	for _, line := range strings.Split(docText, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), serviceAnnotationTag) {
			return true
		}
	}
	return false
}

// parseServiceAnnotation splits a function doc between its @service line and
// the description, other annotations are dropped.
func parseServiceAnnotation(logger *zerolog.Logger, docText string) ServiceAnnotation {
	var (
		descriptionLines []string
		serviceLine      string
	)
	for _, line := range strings.Split(docText, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, serviceAnnotationTag):
			if serviceLine != "" {
				logger.Warn().Msgf("Several %s lines found, only the last one is used", serviceAnnotationTag)
			}
			serviceLine = line
		case line != "" && !strings.HasPrefix(line, "@"):
			descriptionLines = append(descriptionLines, line)
		}
	}

	annotation := ServiceAnnotation{
		description: strings.Join(descriptionLines, "\n"),
		properties:  parseProperties(serviceLine, serviceAnnotationTag),
	}
	for _, unknown := range annotation.UnknownProperties() {
		logger.Warn().Msgf("Unknown property %s in %s annotation, skipping it", unknown, serviceAnnotationTag)
	}
	return annotation
}

func parseProperties(line string, tag string) map[string]string {
	properties := make(map[string]string)

	content := strings.TrimSpace(strings.TrimPrefix(line, tag))
	if content == "" {
		return properties
	}

	for _, match := range propertiesPattern.FindAllStringSubmatch(content, -1) {
		// match[2] is the quoted value, match[3] the bare one
		value := match[2]
		if value == "" {
			value = match[3]
		}
		properties[match[1]] = value
	}
	return properties
}

func parseInjectAnnotation(comment string) InjectAnnotation {
	content := strings.TrimSpace(strings.TrimPrefix(comment, "//"))
	if !strings.HasPrefix(content, injectAnnotationTag) {
		return InjectAnnotation{properties: make(map[string]string)}
	}
	return InjectAnnotation{properties: parseProperties(content, injectAnnotationTag)}
}
