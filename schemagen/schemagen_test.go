// Copyright 2025 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schemagen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/invopop/jsonschema"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/descriptorpb"

	tu "github.com/protomcp/protoc-gen-mcp/testutil"
)

const (
	tString = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tInt32  = descriptorpb.FieldDescriptorProto_TYPE_INT32
	tBool   = descriptorpb.FieldDescriptorProto_TYPE_BOOL
)

// checkSchema compares got against the JSON document want.
func checkSchema(t *testing.T, desc string, got *jsonschema.Schema, want string) {
	t.Helper()
	if diff := tu.JSONDiff([]byte(want), tu.MustJSON(got)); diff != "" {
		t.Errorf("%s: did not get expected schema, diff(-want, +got):\n%s", desc, diff)
	}
}

func TestPrimitiveType(t *testing.T) {
	tests := []struct {
		in   descriptorpb.FieldDescriptorProto_Type
		want string
	}{
		{descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, "number"},
		{descriptorpb.FieldDescriptorProto_TYPE_FLOAT, "number"},
		{descriptorpb.FieldDescriptorProto_TYPE_INT32, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_INT64, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_UINT32, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_UINT64, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_FIXED32, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_FIXED64, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_SFIXED32, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_SFIXED64, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_SINT32, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_SINT64, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_ENUM, "integer"},
		{descriptorpb.FieldDescriptorProto_TYPE_BOOL, "boolean"},
		{descriptorpb.FieldDescriptorProto_TYPE_STRING, "string"},
		{descriptorpb.FieldDescriptorProto_TYPE_BYTES, "string"},
		{descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, "object"},
		{descriptorpb.FieldDescriptorProto_TYPE_GROUP, "object"},
		{descriptorpb.FieldDescriptorProto_Type(0), "object"},
	}
	for _, tt := range tests {
		if got := PrimitiveType(tt.in); got != tt.want {
			t.Errorf("PrimitiveType(%v): got: %s, want: %s", tt.in, got, tt.want)
		}
	}
}

func TestMessageSchema(t *testing.T) {
	allPrimitives := tu.Msg("AllTypes",
		tu.Field("f_double", descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
		tu.Field("f_float", descriptorpb.FieldDescriptorProto_TYPE_FLOAT),
		tu.Field("f_int32", descriptorpb.FieldDescriptorProto_TYPE_INT32),
		tu.Field("f_int64", descriptorpb.FieldDescriptorProto_TYPE_INT64),
		tu.Field("f_uint32", descriptorpb.FieldDescriptorProto_TYPE_UINT32),
		tu.Field("f_uint64", descriptorpb.FieldDescriptorProto_TYPE_UINT64),
		tu.Field("f_fixed32", descriptorpb.FieldDescriptorProto_TYPE_FIXED32),
		tu.Field("f_fixed64", descriptorpb.FieldDescriptorProto_TYPE_FIXED64),
		tu.Field("f_sfixed32", descriptorpb.FieldDescriptorProto_TYPE_SFIXED32),
		tu.Field("f_sfixed64", descriptorpb.FieldDescriptorProto_TYPE_SFIXED64),
		tu.Field("f_sint32", descriptorpb.FieldDescriptorProto_TYPE_SINT32),
		tu.Field("f_sint64", descriptorpb.FieldDescriptorProto_TYPE_SINT64),
		tu.Field("f_enum", descriptorpb.FieldDescriptorProto_TYPE_ENUM),
		tu.Field("f_bool", descriptorpb.FieldDescriptorProto_TYPE_BOOL),
		tu.Field("f_string", descriptorpb.FieldDescriptorProto_TYPE_STRING),
		tu.Field("f_bytes", descriptorpb.FieldDescriptorProto_TYPE_BYTES),
	)

	address := tu.Msg("Address",
		tu.Required(tu.Field("street", tString)),
		tu.Field("number", tInt32),
	)
	person := tu.Nest(tu.Msg("Person",
		tu.Required(tu.Field("name", tString)),
		tu.MsgField("home", ".example.Person.Address"),
		tu.Repeated(tu.MsgField("previous", ".example.Person.Address")),
		tu.Repeated(tu.Field("tags", tString)),
		tu.Required(tu.Field("active", tBool)),
	), address)

	// Sibling is resolved from Outer's nested types when Inner is built
	// with Outer as its parent.
	sibling := tu.Msg("Sibling", tu.Field("value", tString))
	inner := tu.Msg("Inner", tu.MsgField("sibling", ".example.Outer.Sibling"))
	outer := tu.Nest(tu.Msg("Outer", tu.MsgField("inner", ".example.Outer.Inner")), inner, sibling)

	node := tu.Msg("Node", tu.Field("value", tString), tu.Repeated(tu.MsgField("children", ".example.Node")))

	tests := []struct {
		desc     string
		inMsg    *descriptorpb.DescriptorProto
		inParent *descriptorpb.DescriptorProto
		inFiles  []*descriptorpb.FileDescriptorProto
		want     string
	}{{
		desc:  "message without fields",
		inMsg: tu.Msg("Empty"),
		want:  `{"type": "object", "properties": {}}`,
	}, {
		desc:  "every primitive type",
		inMsg: allPrimitives,
		want: `{
			"type": "object",
			"properties": {
				"f_double": {"type": "number"},
				"f_float": {"type": "number"},
				"f_int32": {"type": "integer"},
				"f_int64": {"type": "integer"},
				"f_uint32": {"type": "integer"},
				"f_uint64": {"type": "integer"},
				"f_fixed32": {"type": "integer"},
				"f_fixed64": {"type": "integer"},
				"f_sfixed32": {"type": "integer"},
				"f_sfixed64": {"type": "integer"},
				"f_sint32": {"type": "integer"},
				"f_sint64": {"type": "integer"},
				"f_enum": {"type": "integer"},
				"f_bool": {"type": "boolean"},
				"f_string": {"type": "string"},
				"f_bytes": {"type": "string"}
			}
		}`,
	}, {
		desc:  "nested messages, repeated fields and required fields",
		inMsg: person,
		want: `{
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"home": {
					"type": "object",
					"properties": {"street": {"type": "string"}, "number": {"type": "integer"}},
					"required": ["street"]
				},
				"previous": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {"street": {"type": "string"}, "number": {"type": "integer"}},
						"required": ["street"]
					}
				},
				"tags": {"type": "array", "items": {"type": "string"}},
				"active": {"type": "boolean"}
			},
			"required": ["name", "active"]
		}`,
	}, {
		desc:  "type resolved in the nested types of the parent",
		inMsg: outer,
		want: `{
			"type": "object",
			"properties": {
				"inner": {
					"type": "object",
					"properties": {
						"sibling": {"type": "object", "properties": {"value": {"type": "string"}}}
					}
				}
			}
		}`,
	}, {
		desc:     "explicit parent",
		inMsg:    inner,
		inParent: outer,
		want: `{
			"type": "object",
			"properties": {
				"sibling": {"type": "object", "properties": {"value": {"type": "string"}}}
			}
		}`,
	}, {
		desc:  "no parent and not otherwise resolvable",
		inMsg: inner,
		want:  `{"type": "object", "properties": {"sibling": {"type": "object"}}}`,
	}, {
		desc:  "unresolvable message field",
		inMsg: tu.Msg("Holder", tu.MsgField("missing", ".nowhere.Missing")),
		want:  `{"type": "object", "properties": {"missing": {"type": "object"}}}`,
	}, {
		desc:  "repeated unresolvable message field",
		inMsg: tu.Msg("Holder", tu.Repeated(tu.MsgField("missing", ".nowhere.Missing"))),
		want:  `{"type": "object", "properties": {"missing": {"type": "array", "items": {"type": "object"}}}}`,
	}, {
		desc:  "message field resolved in another file",
		inMsg: tu.Msg("Holder", tu.MsgField("ts", ".google.protobuf.Timestamp")),
		inFiles: []*descriptorpb.FileDescriptorProto{
			tu.File("google/protobuf/timestamp.proto", "google.protobuf",
				tu.Msg("Timestamp",
					tu.Field("seconds", descriptorpb.FieldDescriptorProto_TYPE_INT64),
					tu.Field("nanos", tInt32),
				)),
		},
		want: `{
			"type": "object",
			"properties": {
				"ts": {
					"type": "object",
					"properties": {"seconds": {"type": "integer"}, "nanos": {"type": "integer"}}
				}
			}
		}`,
	}, {
		desc:    "self-referential message",
		inMsg:   node,
		inFiles: []*descriptorpb.FileDescriptorProto{tu.File("example/node.proto", "example", node)},
		want: `{
			"type": "object",
			"properties": {
				"value": {"type": "string"},
				"children": {"type": "array", "items": {"type": "object"}}
			}
		}`,
	}}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			g := &Generator{
				Primary: tu.File("example/example.proto", "example"),
				Files:   tt.inFiles,
			}
			checkSchema(t, "MessageSchema", g.MessageSchema(tt.inMsg, tt.inParent), tt.want)
		})
	}
}

func TestRecursionTerminates(t *testing.T) {
	// A -> B -> A, both top-level in the primary file.
	a := tu.Msg("A", tu.MsgField("b", ".example.B"))
	b := tu.Msg("B", tu.MsgField("a", ".example.A"), tu.Field("label", tString))
	f := tu.File("example/cycle.proto", "example", a, b)

	checkSchema(t, "TypeSchema(A)", TypeSchema(".example.A", f, nil), `{
		"type": "object",
		"properties": {
			"b": {
				"type": "object",
				"properties": {
					"a": {"type": "object"},
					"label": {"type": "string"}
				}
			}
		}
	}`)
}

func TestRepeatedMessageUsesFullSchema(t *testing.T) {
	item := tu.Msg("Item", tu.Required(tu.Field("id", tString)))
	list := tu.Msg("List", tu.Repeated(tu.MsgField("items", ".shop.Item")))
	f := tu.File("shop/shop.proto", "shop", list, item)

	got := TypeSchema("shop.List", f, []*descriptorpb.FileDescriptorProto{f})
	p, ok := got.Properties.Get("items")
	if !ok {
		t.Fatalf("TypeSchema(shop.List): no items property in %s", tu.MustJSON(got))
	}
	if p.Type != ArrayType || p.Items == nil {
		t.Fatalf("TypeSchema(shop.List): items is not an array schema: %s", tu.MustJSON(p))
	}
	checkSchema(t, "items of List", p.Items, `{"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]}`)
}

func TestTypeSchema(t *testing.T) {
	hw := tu.HelloWorld()
	other := tu.File("other/other.proto", "other", tu.Msg("HelloRequest", tu.Field("other_field", tInt32)))

	tests := []struct {
		desc      string
		inName    string
		inPrimary *descriptorpb.FileDescriptorProto
		inFiles   []*descriptorpb.FileDescriptorProto
		want      string
	}{{
		desc:      "fully qualified name with leading dot",
		inName:    ".helloworld.HelloRequest",
		inPrimary: hw,
		want:      `{"type": "object", "properties": {"name": {"type": "string"}}, "required": ["name"]}`,
	}, {
		desc:      "name without leading dot",
		inName:    "helloworld.HelloReply",
		inPrimary: hw,
		want:      `{"type": "object", "properties": {"message": {"type": "string"}}}`,
	}, {
		desc:      "primary file takes precedence over other files",
		inName:    ".other.HelloRequest",
		inPrimary: hw,
		inFiles:   []*descriptorpb.FileDescriptorProto{hw, other},
		want:      `{"type": "object", "properties": {"name": {"type": "string"}}, "required": ["name"]}`,
	}, {
		desc:      "unresolvable type",
		inName:    ".google.protobuf.Empty",
		inPrimary: hw,
		inFiles:   []*descriptorpb.FileDescriptorProto{hw, other},
		want:      `{"type": "object"}`,
	}}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			checkSchema(t, "TypeSchema", TypeSchema(tt.inName, tt.inPrimary, tt.inFiles), tt.want)
		})
	}
}

func TestPropertiesFollowDeclarationOrder(t *testing.T) {
	m := tu.Msg("Ordered",
		tu.Field("zeta", tString),
		tu.Field("alpha", tString),
		tu.Field("mu", tString),
	)
	s := (&Generator{}).MessageSchema(m, nil)
	var got []string
	for p := s.Properties.Oldest(); p != nil; p = p.Next() {
		got = append(got, p.Key)
	}
	want := []string{"zeta", "alpha", "mu"}
	if len(got) != len(want) {
		t.Fatalf("property keys: got: %v, want: %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("property keys: got: %v, want: %v", got, want)
			break
		}
	}
}

func TestMessageSchemaDoesNotMutateInput(t *testing.T) {
	f := tu.HelloWorld()
	before := proto.Clone(f)
	TypeSchema(".helloworld.HelloRequest", f, nil)
	if diff := cmp.Diff(before, f, protocmp.Transform()); diff != "" {
		t.Errorf("TypeSchema modified its input, diff(-before, +after):\n%s", diff)
	}
}
