package value

import "fmt"

// ObjType discriminates the heap object kinds.
type ObjType uint8

const (
	ObjString ObjType = iota
	ObjFunction
	ObjNative
	ObjClosure
	ObjUpvalue
	ObjClass
	ObjInstance
	ObjBoundMethod
)

// Header is embedded by every heap object kind. It carries the bookkeeping
// the collector needs: the mark bit and the next-in-heap link that threads
// every live-or-dead allocation into one singly linked list.
type Header struct {
	Marked bool
	Next   Obj
}

// Obj is satisfied by every heap object kind. A Value with Kind == KindObj
// holds one of these.
type Obj interface {
	Type() ObjType
	String() string
	header() *Header
}

func (h *Header) header() *Header { return h }

// MarkedOf and SetMarked give the collector access to an object's mark bit
// without each object kind needing to expose it separately.
func MarkedOf(o Obj) bool    { return o.header().Marked }
func SetMarked(o Obj, m bool) { o.header().Marked = m }
func NextOf(o Obj) Obj        { return o.header().Next }
func SetNext(o Obj, n Obj)     { o.header().Next = n }

// StringObj is an interned byte sequence. Two StringObjs with equal Chars
// are never both reachable: package heap's intern table canonicalizes them,
// so string equality elsewhere in the system is pointer equality.
type StringObj struct {
	Header
	Chars string
	Hash  uint32
}

func (s *StringObj) Type() ObjType  { return ObjString }
func (s *StringObj) String() string { return s.Chars }

// FunctionObj is a compiled function body: its arity, how many upvalues its
// closures capture, and the bytecode chunk the compiler emitted for it.
// Chunk is declared as an opaque interface{} here to avoid an import cycle
// with package chunk (which itself stores Values as constants); the vm and
// compiler packages cast it back to *chunk.Chunk.
type FunctionObj struct {
	Header
	Name         *StringObj // nil for the implicit top-level script
	Arity        int
	UpvalueCount int
	Chunk        interface{}
}

func (f *FunctionObj) Type() ObjType { return ObjFunction }
func (f *FunctionObj) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is a host function exposed to language code. Arity of -1 means
// variadic: the native receives whatever argument count the call site
// provided.
type NativeFn func(args []Value) (Value, error)

type NativeObj struct {
	Header
	Name  string
	Arity int
	Fn    NativeFn
}

func (n *NativeObj) Type() ObjType  { return ObjNative }
func (n *NativeObj) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }

// UpvalueObj is the runtime reification of a captured variable. While open
// it names a slot on the VM's value stack (by index, not by pointer — the
// stack is a fixed-capacity array so indices stay valid for the upvalue's
// whole open lifetime); once its owning frame returns it is closed and owns
// a copy of the value directly.
type UpvalueObj struct {
	Header
	StackIdx int
	Closed   Value
	IsClosed bool
	NextOpen *UpvalueObj // open-upvalue list link, sorted by descending StackIdx
}

func (u *UpvalueObj) Type() ObjType  { return ObjUpvalue }
func (u *UpvalueObj) String() string { return "<upvalue>" }

// ClosureObj pairs a compiled function with the upvalues it captured at
// creation time.
type ClosureObj struct {
	Header
	Function *FunctionObj
	Upvalues []*UpvalueObj
}

func (c *ClosureObj) Type() ObjType  { return ObjClosure }
func (c *ClosureObj) String() string { return c.Function.String() }

// ClassObj holds a class's name and its method table, keyed by interned
// method-name string so lookups are pointer comparisons.
type ClassObj struct {
	Header
	Name    *StringObj
	Methods map[*StringObj]*ClosureObj
}

func (c *ClassObj) Type() ObjType  { return ObjClass }
func (c *ClassObj) String() string { return c.Name.Chars }

// InstanceObj is a live object of some class, with its own field table.
type InstanceObj struct {
	Header
	Class  *ClassObj
	Fields map[*StringObj]Value
}

func (i *InstanceObj) Type() ObjType  { return ObjInstance }
func (i *InstanceObj) String() string { return fmt.Sprintf("<%s instance>", i.Class.Name.Chars) }

// BoundMethodObj pairs a receiver with one of its class's closures, letting
// `obj.method` be passed around as a value distinct from a plain closure.
type BoundMethodObj struct {
	Header
	Receiver Value
	Method   *ClosureObj
}

func (b *BoundMethodObj) Type() ObjType  { return ObjBoundMethod }
func (b *BoundMethodObj) String() string { return b.Method.String() }
