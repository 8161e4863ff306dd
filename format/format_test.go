package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/classfile/classfiletest"
)

func decode(t *testing.T, data []byte) *classfile.ClassDescriptor {
	t.Helper()
	cd, err := classfile.Read(data, "")
	if err != nil {
		t.Fatalf("read class: %v", err)
	}
	return cd
}

func sample(t *testing.T) *classfile.ClassDescriptor {
	return decode(t, classfiletest.New("com/example/Widget").
		Implements("java/lang/Runnable").
		Field(classfiletest.Private|classfiletest.Static|classfiletest.Final, "COUNT", "I").
		Method(classfiletest.Public, "run", "()V").
		Method(classfiletest.Public|classfiletest.Varargs, "of", "([Ljava/lang/String;)V").
		Bytes())
}

func TestLineEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := NewLineEncoder(&buf).Encode(sample(t)); err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := []string{
		"class\tcom/example/Widget\tpublic\t52.0",
		"extends\tjava/lang/Object",
		"implements\tjava/lang/Runnable",
		"field\tCOUNT\tI\tprivate\tstatic,final",
		"method\trun\t()V\tpublic\t-",
		"method\tof\t([Ljava/lang/String;)V\tpublic\tvarargs",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf).Encode(sample(t)); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var data jsonClass
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data.Name != "com/example/Widget" || data.Package != "com/example" {
		t.Errorf("name = %q package = %q", data.Name, data.Package)
	}
	if data.Kind != "class" || data.Visibility != "public" {
		t.Errorf("kind = %q visibility = %q", data.Kind, data.Visibility)
	}
	if len(data.Fields) != 1 || data.Fields[0].Visibility != "private" {
		t.Errorf("fields = %+v", data.Fields)
	}
	if len(data.Methods) != 2 || data.Methods[1].Modifiers[0] != "varargs" {
		t.Errorf("methods = %+v", data.Methods)
	}
}

func TestModuleInfo(t *testing.T) {
	cd := decode(t, classfiletest.ModuleInfo(classfiletest.ModuleSpec{
		Name:     "com.example",
		Requires: []string{"java.base"},
		Exports:  []classfiletest.Export{{Package: "com/example/api"}, {Package: "com/example/spi", To: []string{"a", "b"}}},
	}))

	var buf bytes.Buffer
	if err := NewLineEncoder(&buf).Encode(cd); err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := buf.String()
	for _, line := range []string{
		"module\tmodule-info\t",
		"requires\tjava.base\n",
		"exports\tcom/example/api\t-\n",
		"exports\tcom/example/spi\ta,b\n",
	} {
		if !strings.Contains(text, line) {
			t.Errorf("missing %q in:\n%s", line, text)
		}
	}
}

func TestGenericSignatures(t *testing.T) {
	c := classfiletest.New("com/example/Box")
	c.Field(classfiletest.Private, "items", "Ljava/util/List;", c.Signature("Ljava/util/List<Ljava/lang/String;>;"))
	c.Method(classfiletest.Public, "first", "(Ljava/util/List;)Ljava/lang/Object;",
		c.Signature("<T:Ljava/lang/Object;>(Ljava/util/List<TT;>;)TT;"))
	c.Method(classfiletest.Public, "size", "()I")
	cd := decode(t, c.Bytes())

	var buf bytes.Buffer
	if err := NewLineEncoder(&buf).Encode(cd); err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := buf.String()
	for _, line := range []string{
		"signature\tjava.util.List<java.lang.String>\n",
		"signature\t<T extends java.lang.Object> T (java.util.List<T>)\n",
	} {
		if !strings.Contains(text, line) {
			t.Errorf("missing %q in:\n%s", line, text)
		}
	}
	if strings.Count(text, "signature\t") != 2 {
		t.Errorf("erased members must not print a signature line:\n%s", text)
	}

	buf.Reset()
	if err := NewJSONEncoder(&buf).Encode(cd); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var data jsonClass
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := data.Methods[1].Type; got != "int ()" {
		t.Errorf("size type = %q, want %q", got, "int ()")
	}
}

func TestModifierColumns(t *testing.T) {
	c := classfiletest.NewInterface("com/example/Shape")
	c.Method(classfiletest.Protected|classfiletest.Bridge|classfiletest.Synthetic, "area", "()Ljava/lang/Object;")
	c.Method(classfiletest.Private|classfiletest.Static, "helper", "()V")
	c.Method(0, "local", "()V")
	cd := decode(t, c.Bytes())

	var buf bytes.Buffer
	if err := NewLineEncoder(&buf).Encode(cd); err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := buf.String()
	for _, line := range []string{
		"interface\tcom/example/Shape\tpublic,abstract\t",
		"method\tarea\t()Ljava/lang/Object;\tprotected\tbridge,synthetic\n",
		"method\thelper\t()V\tprivate\tstatic\n",
		"method\tlocal\t()V\tpackage\t-\n",
	} {
		if !strings.Contains(text, line) {
			t.Errorf("missing %q in:\n%s", line, text)
		}
	}
}
