package ir

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/roach88/plancore/internal/md"
)

// DomainSubtree separates subtree fingerprints from any other hash built on
// the same canonical encoding.
const DomainSubtree = "plancore/subtree/v1"

// Fingerprint returns a stable structural hash of the subtree rooted at n.
// Two subtrees get the same fingerprint when they have the same shape, the
// same op types and payloads, and refer to the same vars. Node identity does
// not take part.
func Fingerprint(n *Node) string {
	return hex.EncodeToString(fingerprint(n))
}

// FingerprintHash is Fingerprint truncated to 64 bits.
func FingerprintHash(n *Node) uint64 {
	return binary.BigEndian.Uint64(fingerprint(n)[:8])
}

func fingerprint(n *Node) []byte {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, canonicalNode(n)); err != nil {
		// canonicalNode only produces supported values.
		panic(err)
	}
	h := sha256.New()
	h.Write([]byte(DomainSubtree))
	h.Write([]byte{0x00})
	h.Write(buf.Bytes())
	return h.Sum(nil)
}

func canonicalNode(n *Node) canonical {
	obj := canonicalObject{"op": n.op.OpType().String()}
	if p := canonicalPayload(n.op); len(p) > 0 {
		obj["payload"] = p
	}
	if len(n.children) > 0 {
		children := make([]canonical, len(n.children))
		for i, c := range n.children {
			children[i] = canonicalNode(c)
		}
		obj["children"] = children
	}
	return obj
}

func canonicalVars(l VarList) []canonical {
	out := make([]canonical, len(l))
	for i, v := range l {
		out[i] = v.id
	}
	return out
}

// canonicalVarMap encodes vm as [from, to] pairs in insertion order.
func canonicalVarMap(vm *VarMap) []canonical {
	keys := vm.Keys()
	out := make([]canonical, len(keys))
	for i, k := range keys {
		to, _ := vm.Lookup(k)
		out[i] = []canonical{k.id, to.id}
	}
	return out
}

func canonicalType(t *md.Type) string {
	return t.String()
}

func canonicalPayload(op Op) canonicalObject {
	p := canonicalObject{}
	if t, ok := op.(ScalarTyped); ok && t.ResultType() != nil {
		p["type"] = canonicalType(t.ResultType())
	}
	switch o := op.(type) {
	case *ConstantOp:
		p["value"] = o.Value.String()
	case *VarRefOp:
		p["var"] = o.Var.id
	case *PropertyOp:
		p["property"] = o.Property
	case *RelPropertyOp:
		p["rel"] = o.Prop.String()
	case *FunctionOp:
		p["name"] = o.Name
	case *ScanTableOp:
		p["table"] = o.Table.Name
		p["columns"] = canonicalVars(o.Columns)
	case *ProjectOp:
		p["outputs"] = canonicalVars(o.Outputs)
	case *SortOp:
		keys := make([]canonical, len(o.Keys))
		for i, k := range o.Keys {
			keys[i] = k.String()
		}
		p["keys"] = keys
	case *GroupByOp:
		p["keys"] = canonicalVars(o.Keys)
		p["outputs"] = canonicalVars(o.Outputs)
	case *DistinctOp:
		p["keys"] = canonicalVars(o.Keys)
	case *SetOp:
		p["outputs"] = canonicalVars(o.Outputs)
		p["maps"] = []canonical{canonicalVarMap(o.VarMaps[0]), canonicalVarMap(o.VarMaps[1])}
	case *UnnestOp:
		p["input"] = o.Input.id
		p["output"] = o.Output.id
	case *VarDefOp:
		p["var"] = o.Var.id
	case *PhysicalOp:
		p["outputs"] = canonicalVars(o.Outputs)
	}
	return p
}
