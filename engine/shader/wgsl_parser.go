package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps WGSL type names to their corresponding wgpu vertex format and byte size
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2i":     {wgpu.VertexFormatSint32x2, 8},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"vec3i":     {wgpu.VertexFormatSint32x3, 12},
	"vec3<i32>": {wgpu.VertexFormatSint32x3, 12},
	"vec4i":     {wgpu.VertexFormatSint32x4, 16},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2u":     {wgpu.VertexFormatUint32x2, 8},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec3u":     {wgpu.VertexFormatUint32x3, 12},
	"vec3<u32>": {wgpu.VertexFormatUint32x3, 12},
	"vec4u":     {wgpu.VertexFormatUint32x4, 16},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\(\s*(\d+)\s*\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\s*\w+\s*\)`)

	// fieldRegex matches a field or parameter: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex and fragmentEntryRegex capture entry point names after their stage attribute
	vertexEntryRegex   = regexp.MustCompile(`@vertex\s+fn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`@fragment\s+fn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> constants: Constants;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// hasEntryPoint reports whether source declares entryPoint with the attribute for stage.
//
// Parameters:
//   - source: WGSL source with comments stripped
//   - entryPoint: the function name to look for
//   - stage: the stage whose attribute must precede the function
//
// Returns:
//   - bool: true if the entry point is declared for the stage
func hasEntryPoint(source, entryPoint string, stage Stage) bool {
	re := vertexEntryRegex
	if stage == StagePixel {
		re = fragmentEntryRegex
	}
	for _, match := range re.FindAllStringSubmatch(source, -1) {
		if match[1] == entryPoint {
			return true
		}
	}
	return false
}

// parseVertexInputs resolves the @location inputs of a vertex entry point.
// Parameters may carry @location directly or be a struct whose fields do.
// Builtin inputs such as vertex_index are skipped. Results are sorted by location.
//
// Parameters:
//   - source: WGSL source with comments stripped
//   - entryPoint: the vertex entry point name
//
// Returns:
//   - []VertexInput: the inputs sorted by location
//   - error: error if the signature cannot be found or an input type has no vertex format
func parseVertexInputs(source, entryPoint string) ([]VertexInput, error) {
	params, ok := entryParameters(source, entryPoint)
	if !ok {
		return nil, fmt.Errorf("vertex entry point %q: %w", entryPoint, ErrEntryPoint)
	}

	structs := make(map[string]parsedStruct)
	for _, ps := range parseStructBlocks(source) {
		structs[ps.name] = ps
	}

	var fields []parsedField
	for _, p := range parseFields(params) {
		if p.isBuiltin {
			continue
		}
		if p.location >= 0 {
			fields = append(fields, p)
			continue
		}
		if ps, ok := structs[p.typeName]; ok {
			for _, f := range ps.fields {
				if !f.isBuiltin && f.location >= 0 {
					fields = append(fields, f)
				}
			}
		}
	}

	inputs := make([]VertexInput, 0, len(fields))
	for _, f := range fields {
		info, ok := wgslVertexFormatMap[f.typeName]
		if !ok {
			return nil, fmt.Errorf("vertex input %s: unsupported type %s", f.name, f.typeName)
		}
		inputs = append(inputs, VertexInput{
			Name:     f.name,
			Location: uint32(f.location),
			Format:   info.format,
			Size:     info.size,
		})
	}
	sort.Slice(inputs, func(i, j int) bool {
		return inputs[i].Location < inputs[j].Location
	})
	return inputs, nil
}

// entryParameters returns the raw text between the parentheses of fn entryPoint(...).
// Attribute parentheses inside the parameter list are balanced.
//
// Parameters:
//   - source: WGSL source with comments stripped
//   - entryPoint: the function name
//
// Returns:
//   - string: the parameter list text
//   - bool: false if the function is not found
func entryParameters(source, entryPoint string) (string, bool) {
	re := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(entryPoint) + `\s*\(`)
	loc := re.FindStringIndex(source)
	if loc == nil {
		return "", false
	}

	start := loc[1]
	depth := 1
	for i := start; i < len(source); i++ {
		switch source[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return source[start:i], true
			}
		}
	}
	return "", false
}

// parseBindings extracts all @group(N) @binding(M) resource declarations from WGSL source.
// Buffer bindings carry the layout size of their type so callers can check buffer sizes.
// Results are sorted by group then binding.
//
// Parameters:
//   - source: WGSL source with comments stripped
//   - visibility: the shader stage visibility flag to set on each layout entry
//
// Returns:
//   - []Binding: the declared bindings
func parseBindings(source string, visibility wgpu.ShaderStage) []Binding {
	structSizes := computeStructSizes(parseStructBlocks(source))

	matches := bindGroupDeclRegex.FindAllStringSubmatch(source, -1)
	bindings := make([]Binding, 0, len(matches))
	for _, match := range matches {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		typeName := strings.TrimSpace(match[5])

		entry, kind := classifyResource(uint32(binding), visibility, addressSpace, typeName)
		bd := Binding{
			Group:    uint32(group),
			Binding:  uint32(binding),
			Name:     strings.TrimSpace(match[4]),
			TypeName: typeName,
			Kind:     kind,
		}
		if kind == BindingUniform || kind == BindingStorage {
			if layout, ok := resolveTypeLayout(typeName, structSizes); ok {
				bd.Size = layout.size
				entry.Buffer.MinBindingSize = layout.size
			}
		}
		bd.Layout = entry
		bindings = append(bindings, bd)
	}

	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].Group != bindings[j].Group {
			return bindings[i].Group < bindings[j].Group
		}
		return bindings[i].Binding < bindings[j].Binding
	})
	return bindings
}

// StructSize computes the WGSL uniform layout size of a named struct in source.
//
// Parameters:
//   - source: raw WGSL source
//   - name: the struct name
//
// Returns:
//   - uint64: the struct size in bytes
//   - bool: false if the struct is missing or contains unresolvable types
func StructSize(source, name string) (uint64, bool) {
	sizes := computeStructSizes(parseStructBlocks(stripComments(source)))
	layout, ok := sizes[name]
	return layout.size, ok
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseFields(match[2]),
		})
	}
	return structs
}

// parseFields parses a comma separated field or parameter list,
// extracting @location and @builtin attributes along with the name and type
//
// Parameters:
//   - body: the content of a struct body or a parameter list
//
// Returns:
//   - []parsedField: all fields found in the body
func parseFields(body string) []parsedField {
	parts := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(part) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(part); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(part)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}

	return fields
}
