// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package export renders parse results for consumption outside of Go.
// Every format except text wraps the result as
//
//	{"header": {"keyword": ..., "label": ..., "version": ...}, "document": {...}}
package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"gopkg.microglot.org/atf.go/tree"
)

type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatProto Format = "proto"
)

var formats = []Format{FormatText, FormatJSON, FormatYAML, FormatProto}

func ParseFormat(v string) (Format, error) {
	for _, f := range formats {
		if string(f) == strings.ToLower(v) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", v)
}

// Extension returns the file extension used when writing f to a directory.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	case FormatProto:
		return ".pb"
	default:
		return ".txt"
	}
}

func Encode(w io.Writer, f Format, result *tree.Result) error {
	switch f {
	case FormatText:
		return encodeText(w, result)
	case FormatJSON:
		v, err := Value(result)
		if err != nil {
			return err
		}
		b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(append(b, '\n'))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(YAML(result)); err != nil {
			return err
		}
		return enc.Close()
	case FormatProto:
		v, err := Value(result)
		if err != nil {
			return err
		}
		b, err := proto.MarshalOptions{Deterministic: true}.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unknown export format %q", string(f))
	}
}

func encodeText(w io.Writer, result *tree.Result) error {
	var b strings.Builder
	b.WriteString(result.Header.Keyword)
	if result.Header.Label != "" {
		fmt.Fprintf(&b, " %q", result.Header.Label)
	}
	b.WriteString(" ")
	b.WriteString(result.Header.Version)
	b.WriteString("\n")
	b.WriteString(tree.Format(result.Document))
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Value converts a result to a protobuf struct value. Integers become
// doubles and lose precision beyond 2^53.
func Value(result *tree.Result) (*structpb.Value, error) {
	doc, err := nodeValue(result.Document)
	if err != nil {
		return nil, err
	}
	header := &structpb.Struct{Fields: map[string]*structpb.Value{
		"keyword": structpb.NewStringValue(result.Header.Keyword),
		"label":   structpb.NewStringValue(result.Header.Label),
		"version": structpb.NewStringValue(result.Header.Version),
	}}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"header":   structpb.NewStructValue(header),
		"document": doc,
	}}), nil
}

func nodeValue(n tree.Node) (*structpb.Value, error) {
	switch v := n.(type) {
	case *tree.Scalar:
		switch v.Type {
		case tree.ScalarString, tree.ScalarIdentifier:
			return structpb.NewStringValue(v.Str), nil
		case tree.ScalarInteger:
			return structpb.NewNumberValue(float64(v.Int)), nil
		case tree.ScalarFloat:
			return structpb.NewNumberValue(v.Float), nil
		case tree.ScalarBool:
			return structpb.NewBoolValue(v.Bool), nil
		default:
			return structpb.NewNullValue(), nil
		}
	case *tree.List:
		values := make([]*structpb.Value, 0, len(v.Items))
		for _, item := range v.Items {
			iv, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			values = append(values, iv)
		}
		return structpb.NewListValue(&structpb.ListValue{Values: values}), nil
	case *tree.Map:
		fields := make(map[string]*structpb.Value, v.Len())
		var err error
		v.Range(func(k string, item tree.Node) bool {
			var iv *structpb.Value
			iv, err = nodeValue(item)
			fields[k] = iv
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	default:
		return nil, fmt.Errorf("cannot export node of type %T", n)
	}
}

// YAML converts a result to a YAML document node. Map keys keep the order in
// which they appeared in the input.
func YAML(result *tree.Result) *yaml.Node {
	header := mappingNode()
	appendPair(header, "keyword", stringNode(result.Header.Keyword))
	appendPair(header, "label", stringNode(result.Header.Label))
	appendPair(header, "version", stringNode(result.Header.Version))
	root := mappingNode()
	appendPair(root, "header", header)
	appendPair(root, "document", yamlNode(result.Document))
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
}

func yamlNode(n tree.Node) *yaml.Node {
	switch v := n.(type) {
	case *tree.Scalar:
		switch v.Type {
		case tree.ScalarString, tree.ScalarIdentifier:
			return stringNode(v.Str)
		case tree.ScalarInteger:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.Int, 10)}
		case tree.ScalarFloat:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(v.Float)}
		case tree.ScalarBool:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool)}
		default:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
	case *tree.List:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items {
			seq.Content = append(seq.Content, yamlNode(item))
		}
		return seq
	case *tree.Map:
		m := mappingNode()
		v.Range(func(k string, item tree.Node) bool {
			appendPair(m, k, yamlNode(item))
			return true
		})
		return m
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s = s + ".0"
	}
	return s
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func stringNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, stringNode(key), value)
}
