// Package treeyaml reads and writes expression trees as YAML documents,
// the format used for fixtures and the inspect tool. A document is a
// nested mapping:
//
//	op: min
//	args:
//	  - op: var-x
//	  - op: var-y
//
// Constants carry `value`, and free variables may carry `name` so the same
// variable can appear in several places. Oracle leaves have no document
// form.
package treeyaml

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/spatialkit/frep"
)

// Node is one mapping in a tree document.
type Node struct {
	Op    string   `yaml:"op"`
	Value *float64 `yaml:"value,omitempty"`
	Name  string   `yaml:"name,omitempty"`
	Args  []*Node  `yaml:"args,omitempty"`
}

// Unmarshal parses a YAML document into a tree. The caller owns the
// returned handle.
func Unmarshal(data []byte) (frep.Tree, error) {
	var root Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return frep.Tree{}, fmt.Errorf("treeyaml: %w", err)
	}
	return build(&root)
}

// Decode reads one YAML document from r and parses it into a tree.
func Decode(r io.Reader) (frep.Tree, error) {
	var root Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return frep.Tree{}, fmt.Errorf("treeyaml: %w", err)
	}
	return build(&root)
}

// Marshal renders the tree as a YAML document. Named variables are
// invented as v0, v1, ... in first-appearance order so sharing round-trips.
func Marshal(t frep.Tree) ([]byte, error) {
	root, err := document(t)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("treeyaml: %w", err)
	}
	return out, nil
}

// Encode writes the tree to w as a YAML document.
func Encode(w io.Writer, t frep.Tree) error {
	root, err := document(t)
	if err != nil {
		return err
	}
	if err := yaml.NewEncoder(w).Encode(root); err != nil {
		return fmt.Errorf("treeyaml: %w", err)
	}
	return nil
}

func build(root *Node) (frep.Tree, error) {
	vars := make(map[string]frep.Tree)
	defer func() {
		for _, v := range vars {
			v.Release()
		}
	}()
	return buildNode(root, vars)
}

func buildNode(d *Node, vars map[string]frep.Tree) (frep.Tree, error) {
	if d == nil {
		return frep.Tree{}, fmt.Errorf("treeyaml: null node")
	}
	op, ok := frep.ParseOpcode(d.Op)
	if !ok {
		return frep.Tree{}, fmt.Errorf("treeyaml: unknown op %q", d.Op)
	}

	switch op {
	case frep.OpConstant:
		if d.Value == nil {
			return frep.Tree{}, fmt.Errorf("treeyaml: %s node without value", d.Op)
		}
		return frep.Constant(*d.Value), nil
	case frep.OpVarX:
		return frep.X(), nil
	case frep.OpVarY:
		return frep.Y(), nil
	case frep.OpVarZ:
		return frep.Z(), nil
	case frep.OpVarFree:
		if d.Name == "" {
			return frep.Var(), nil
		}
		if v, ok := vars[d.Name]; ok {
			return v.Retain(), nil
		}
		v := frep.Var()
		vars[d.Name] = v
		return v.Retain(), nil
	case frep.OpOracle:
		return frep.Tree{}, fmt.Errorf("treeyaml: oracle nodes have no document form")
	}

	want := op.Args()
	if len(d.Args) != want {
		return frep.Tree{}, fmt.Errorf("treeyaml: %s wants %d args, got %d", d.Op, want, len(d.Args))
	}
	args := make([]frep.Tree, want)
	defer func() {
		for _, a := range args {
			a.Release()
		}
	}()
	for i, arg := range d.Args {
		a, err := buildNode(arg, vars)
		if err != nil {
			return frep.Tree{}, fmt.Errorf("treeyaml: %s arg %d: %w", d.Op, i, err)
		}
		args[i] = a
	}

	switch {
	case op == frep.OpConstVar:
		return args[0].WithConstVars(), nil
	case op == frep.OpRemap:
		return frep.Remap(args[0], args[1], args[2], args[3])
	case op.Args() == 1:
		return unaryTree(op, args[0]), nil
	default:
		return binaryTree(op, args[0], args[1]), nil
	}
}

func unaryTree(op frep.Opcode, a frep.Tree) frep.Tree {
	switch op {
	case frep.OpSquare:
		return frep.Square(a)
	case frep.OpSqrt:
		return frep.Sqrt(a)
	case frep.OpNeg:
		return frep.Neg(a)
	case frep.OpAbs:
		return frep.Abs(a)
	case frep.OpSin:
		return frep.Sin(a)
	case frep.OpCos:
		return frep.Cos(a)
	case frep.OpTan:
		return frep.Tan(a)
	case frep.OpAsin:
		return frep.Asin(a)
	case frep.OpAcos:
		return frep.Acos(a)
	case frep.OpAtan:
		return frep.Atan(a)
	case frep.OpExp:
		return frep.Exp(a)
	case frep.OpLog:
		return frep.Log(a)
	case frep.OpRecip:
		return frep.Recip(a)
	default:
		panic(op)
	}
}

func binaryTree(op frep.Opcode, a, b frep.Tree) frep.Tree {
	switch op {
	case frep.OpAdd:
		return frep.Add(a, b)
	case frep.OpSub:
		return frep.Sub(a, b)
	case frep.OpMul:
		return frep.Mul(a, b)
	case frep.OpDiv:
		return frep.Div(a, b)
	case frep.OpMin:
		return frep.Min(a, b)
	case frep.OpMax:
		return frep.Max(a, b)
	case frep.OpPow:
		return frep.Pow(a, b)
	case frep.OpNthRoot:
		return frep.NthRoot(a, b)
	case frep.OpAtan2:
		return frep.Atan2(a, b)
	case frep.OpMod:
		return frep.Mod(a, b)
	default:
		panic(op)
	}
}

func document(t frep.Tree) (*Node, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("treeyaml: invalid tree")
	}
	names := make(map[frep.ID]string)
	return documentNode(t, names)
}

func documentNode(t frep.Tree, names map[frep.ID]string) (*Node, error) {
	op := t.Op()
	d := &Node{Op: op.String()}
	switch op {
	case frep.OpConstant:
		v, _ := t.Value()
		d.Value = &v
		return d, nil
	case frep.OpVarX, frep.OpVarY, frep.OpVarZ:
		return d, nil
	case frep.OpVarFree:
		name, ok := names[t.ID()]
		if !ok {
			name = fmt.Sprintf("v%d", len(names))
			names[t.ID()] = name
		}
		d.Name = name
		return d, nil
	case frep.OpOracle:
		return nil, fmt.Errorf("treeyaml: oracle nodes have no document form")
	}

	for i := 0; i < op.Args(); i++ {
		arg, err := documentNode(t.Arg(i), names)
		if err != nil {
			return nil, err
		}
		d.Args = append(d.Args, arg)
	}
	return d, nil
}
