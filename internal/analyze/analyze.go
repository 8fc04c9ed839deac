// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze extracts scene records from animation scripts by walking
// their Python syntax tree. A scene is a class whose base name contains
// the scene marker; inside its construction method, constructor calls
// assigned to local names become objects and self.play / self.wait calls
// become ordered steps.
package analyze

import (
	"errors"
	"fmt"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/pdiddy/manim-dataset/pkg/types"
)

// ErrSyntax reports a source file the parser could not read cleanly.
var ErrSyntax = errors.New("syntax error")

var pythonLanguage = sitter.NewLanguage(python.Language())

// Result holds the scenes found in one source file, in class order.
type Result struct {
	Scenes map[string]*types.Scene
	Order  []string
}

// List returns the scenes in class order.
func (r Result) List() []*types.Scene {
	out := make([]*types.Scene, 0, len(r.Order))
	for _, name := range r.Order {
		out = append(out, r.Scenes[name])
	}
	return out
}

// ParseFile reads and analyzes one source file.
func ParseFile(path string, cfg types.AnalyzeConfig) (Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	res, err := ParseSource(src, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// ParseSource analyzes Python source. A tree with syntax errors returns an
// error wrapping ErrSyntax and no scenes.
func ParseSource(src []byte, cfg types.AnalyzeConfig) (Result, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(pythonLanguage); err != nil {
		return Result{}, fmt.Errorf("loading python grammar: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return Result{}, fmt.Errorf("%w: parser returned no tree", ErrSyntax)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			pos := bad.StartPosition()
			return Result{}, fmt.Errorf("%w at line %d, column %d", ErrSyntax, pos.Row+1, pos.Column+1)
		}
		return Result{}, ErrSyntax
	}

	w := &walker{
		cfg: cfg.WithDefaults(),
		src: src,
		res: Result{Scenes: map[string]*types.Scene{}},
	}
	w.visit(root)
	return w.res, nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && (c.HasError() || c.IsMissing()) {
			if bad := firstError(c); bad != nil {
				return bad
			}
		}
	}
	return nil
}

// walker carries the traversal context: the scene being filled, if any,
// and whether the current statements belong to its construction method.
type walker struct {
	cfg         types.AnalyzeConfig
	src         []byte
	res         Result
	scene       *types.Scene
	inConstruct bool
}

func (w *walker) visit(n *sitter.Node) {
	switch n.Kind() {
	case "class_definition":
		w.visitClass(n)
	case "function_definition":
		w.visitFunction(n)
	case "expression_statement":
		if w.scene != nil && w.inConstruct {
			w.visitStatement(n)
		}
	default:
		for _, c := range namedChildren(n) {
			w.visit(&c)
		}
	}
}

func (w *walker) visitClass(n *sitter.Node) {
	prevScene, prevConstruct := w.scene, w.inConstruct

	name := ""
	if id := n.ChildByFieldName("name"); id != nil {
		name = id.Utf8Text(w.src)
	}
	if w.isScene(n) {
		scene := types.NewScene(name)
		if _, seen := w.res.Scenes[name]; !seen {
			w.res.Order = append(w.res.Order, name)
		}
		w.res.Scenes[name] = scene
		w.scene = scene
	} else {
		w.scene = nil
	}
	w.inConstruct = false

	if body := n.ChildByFieldName("body"); body != nil {
		w.visit(body)
	}
	w.scene, w.inConstruct = prevScene, prevConstruct
}

// isScene reports whether any plain-name base contains the scene marker.
// Dotted bases such as manim.Scene are not recognized.
func (w *walker) isScene(class *sitter.Node) bool {
	bases := class.ChildByFieldName("superclasses")
	if bases == nil {
		return false
	}
	for _, b := range namedChildren(bases) {
		if b.Kind() == "identifier" && strings.Contains(b.Utf8Text(w.src), w.cfg.SceneMarker) {
			return true
		}
	}
	return false
}

func (w *walker) visitFunction(n *sitter.Node) {
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	name := ""
	if id := n.ChildByFieldName("name"); id != nil {
		name = id.Utf8Text(w.src)
	}
	if w.scene != nil && name == w.cfg.ConstructMethod {
		prev := w.inConstruct
		w.inConstruct = true
		w.visit(body)
		w.inConstruct = prev
		return
	}
	w.visit(body)
}

// visitStatement handles an expression statement inside a construction
// method: an assignment may record objects, a bare call may record a step.
func (w *walker) visitStatement(n *sitter.Node) {
	for _, c := range namedChildren(n) {
		switch c.Kind() {
		case "assignment":
			w.visitAssignment(&c)
		case "call":
			w.visitTrigger(&c)
		}
	}
}

// visitAssignment records `name = Call(...)`. Chained targets (`a = b = C()`)
// each receive the object; annotated assignments are ignored.
func (w *walker) visitAssignment(n *sitter.Node) {
	var targets []*sitter.Node
	value := n
	for value != nil && value.Kind() == "assignment" {
		if value.ChildByFieldName("type") != nil {
			return
		}
		targets = append(targets, value.ChildByFieldName("left"))
		value = value.ChildByFieldName("right")
	}
	if value == nil {
		return
	}
	info, ok := w.objectInfo(value)
	if !ok {
		return
	}
	for _, t := range targets {
		if t != nil && t.Kind() == "identifier" {
			w.scene.Objects[t.Utf8Text(w.src)] = info
		}
	}
}

func (w *walker) objectInfo(n *sitter.Node) (types.ObjectInfo, bool) {
	if n.Kind() != "call" {
		return types.ObjectInfo{}, false
	}
	objType := calleeName(n.ChildByFieldName("function"), w.src)
	if objType == "" {
		return types.ObjectInfo{}, false
	}
	args, kwargs := w.arguments(n)
	return types.ObjectInfo{Type: objType, Args: args, Kwargs: kwargs}, true
}

// arguments extracts the literal positional and keyword arguments of a
// call, dropping values that yield nothing.
func (w *walker) arguments(call *sitter.Node) ([]any, map[string]any) {
	args := []any{}
	kwargs := map[string]any{}
	for _, a := range w.argumentNodes(call) {
		if a.Kind() == "keyword_argument" {
			name := a.ChildByFieldName("name")
			if name == nil {
				continue
			}
			if v, ok := Literal(a.ChildByFieldName("value"), w.src); ok {
				kwargs[name.Utf8Text(w.src)] = v
			}
			continue
		}
		if v, ok := Literal(&a, w.src); ok {
			args = append(args, v)
		}
	}
	return args, kwargs
}

// argumentNodes returns the entries of a call's argument list, excluding
// splats, which never carry a literal.
func (w *walker) argumentNodes(call *sitter.Node) []sitter.Node {
	list := call.ChildByFieldName("arguments")
	if list == nil || list.Kind() != "argument_list" {
		return nil
	}
	var out []sitter.Node
	for _, a := range namedChildren(list) {
		switch a.Kind() {
		case "list_splat", "dictionary_splat":
			continue
		}
		out = append(out, a)
	}
	return out
}

// visitTrigger records self.play(...) and self.wait(...) calls.
func (w *walker) visitTrigger(call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "attribute" {
		return
	}
	obj := fn.ChildByFieldName("object")
	attr := fn.ChildByFieldName("attribute")
	if obj == nil || attr == nil || obj.Kind() != "identifier" || obj.Utf8Text(w.src) != "self" {
		return
	}

	switch attr.Utf8Text(w.src) {
	case w.cfg.PlayMethod:
		play := w.playCall(call)
		w.scene.Animations = append(w.scene.Animations, play)
		w.scene.Steps = append(w.scene.Steps, types.Step{Type: types.StepAnimation, Data: &play})
	case w.cfg.WaitMethod:
		w.scene.Steps = append(w.scene.Steps, types.Step{Type: types.StepWait, Duration: w.waitDuration(call)})
	}
}

func (w *walker) playCall(call *sitter.Node) types.PlayCall {
	play := types.PlayCall{Animations: []types.Animation{}, Kwargs: map[string]any{}}
	for _, a := range w.argumentNodes(call) {
		switch a.Kind() {
		case "keyword_argument":
			name := a.ChildByFieldName("name")
			if name == nil {
				continue
			}
			if v, ok := Literal(a.ChildByFieldName("value"), w.src); ok {
				play.Kwargs[name.Utf8Text(w.src)] = v
			}
		case "call":
			animType := calleeName(a.ChildByFieldName("function"), w.src)
			if animType == "" {
				continue
			}
			args, kwargs := w.arguments(&a)
			play.Animations = append(play.Animations, types.Animation{Type: animType, Args: args, Kwargs: kwargs})
		case "attribute":
			obj := a.ChildByFieldName("object")
			attr := a.ChildByFieldName("attribute")
			if obj == nil || attr == nil || obj.Kind() != "identifier" {
				continue
			}
			play.Animations = append(play.Animations, types.Animation{
				Type:   types.ObjectAnimationType,
				Object: obj.Utf8Text(w.src),
				Method: attr.Utf8Text(w.src),
			})
		}
	}
	return play
}

// waitDuration returns the first positional argument of a wait call, 1
// when there is none, and nil when it is not a literal.
func (w *walker) waitDuration(call *sitter.Node) any {
	for _, a := range w.argumentNodes(call) {
		if a.Kind() == "keyword_argument" {
			continue
		}
		v, _ := Literal(&a, w.src)
		return v
	}
	return int64(1)
}
