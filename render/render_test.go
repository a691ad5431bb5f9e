// Copyright © 2024 The ELPS authors

package render_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/jstest"
	"github.com/luthersystems/jsviz/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	f, err := render.ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, render.JSON, f)
	_, err = render.ParseFormat("xml")
	assert.Error(t, err)
}

func TestTextTimeline(t *testing.T) {
	tl := jstest.Run(t, "let x = 1;")
	var buf bytes.Buffer
	require.NoError(t, render.Timeline(&buf, tl, render.Text))
	expect := `[0] block-enter 1:0
  Start execution
  scope: global { x (uninitialized) }
[1] declaration 1:0
  Declare let x = 1
  scope: global { x = 1 }
[2] block-exit 1:0
  End execution
  scope: global { x = 1 }
`
	assert.Equal(t, expect, buf.String())
}

func TestTextMemory(t *testing.T) {
	tl := jstest.Run(t, `function make() {
  let n = 0;
  return function () { return n; };
}
let f = make();
let o = {a: 1};
let e = {};`)
	r := &render.TextRenderer{Memory: true}
	var buf bytes.Buffer
	require.NoError(t, r.Step(&buf, tl.Final()))
	out := buf.String()
	assert.Contains(t, out, "stack: global\n")
	assert.Contains(t, out, "heap_0 function make()\n")
	assert.Contains(t, out, "function anonymous() closure { n = 0 (make) }\n")
	assert.Contains(t, out, "object { a: 1 }\n")
	assert.Contains(t, out, "object {}\n")
	assert.NotContains(t, out, "scope:")
}

func TestTextWrap(t *testing.T) {
	r := &render.TextRenderer{Width: 20}
	var buf bytes.Buffer
	step := &js.Step{Description: "Declare let message = \"a fairly long string value\""}
	require.NoError(t, r.Step(&buf, step))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.True(t, len(lines) > 2)
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, "  "), "%q", line)
	}
}

func TestTextFailedTimeline(t *testing.T) {
	tl := jstest.NewInterpreter(t).Run("test.js", "y = 1;")
	require.True(t, tl.Failed())
	var buf bytes.Buffer
	require.NoError(t, render.Timeline(&buf, tl, render.Text))
	assert.Contains(t, buf.String(), "Error: y is not defined")
	assert.True(t, strings.HasSuffix(buf.String(), "error: y is not defined\n"))
}

func TestJSONTimeline(t *testing.T) {
	tl := jstest.Run(t, "let a = [1];")
	var buf bytes.Buffer
	require.NoError(t, render.Timeline(&buf, tl, render.JSON))

	var doc struct {
		Name  string `json:"name"`
		Steps []struct {
			ID             int    `json:"id"`
			Type           string `json:"type"`
			Description    string `json:"description"`
			MemorySnapshot struct {
				Heap []struct {
					ID   string `json:"id"`
					Type string `json:"type"`
				} `json:"heap"`
			} `json:"memorySnapshot"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "test.js", doc.Name)
	require.Len(t, doc.Steps, 3)
	assert.Equal(t, "declaration", doc.Steps[1].Type)
	assert.Equal(t, "Declare let a = <ref:heap_0>", doc.Steps[1].Description)
	require.Len(t, doc.Steps[1].MemorySnapshot.Heap, 1)
	assert.Equal(t, "heap_0", doc.Steps[1].MemorySnapshot.Heap[0].ID)
	assert.Equal(t, "array", doc.Steps[1].MemorySnapshot.Heap[0].Type)
}

func TestYAMLSteps(t *testing.T) {
	tl := jstest.Run(t, "const s = 'hi';")
	var buf bytes.Buffer
	require.NoError(t, render.Steps(&buf, tl.Steps[1:2], render.YAML))

	var steps []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &steps))
	require.Len(t, steps, 1)
	assert.Equal(t, "declaration", steps[0]["type"])
	scope := steps[0]["scopeSnapshot"].(map[string]interface{})
	assert.Equal(t, "scope_0", scope["currentScopeId"])
}

func TestDOM(t *testing.T) {
	tl := jstest.Run(t, `document.getElementById("out").textContent = "one";
document.querySelector(".note").setAttribute("title", "t");
document.getElementById("out").textContent = "two";`)
	assert.Len(t, render.Operations(tl), 3)

	var buf bytes.Buffer
	require.NoError(t, render.DOM(&buf, tl, render.Text))
	expect := `#out
  text: two
.note
  attribute title = "t"
`
	assert.Equal(t, expect, buf.String())

	buf.Reset()
	require.NoError(t, render.DOM(&buf, tl, render.JSON))
	assert.JSONEq(t, `[
		{"selector": "#out", "text": "two"},
		{"selector": ".note", "attributes": {"title": "t"}}
	]`, buf.String())
}
