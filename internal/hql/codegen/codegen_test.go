package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/hql/analyzer"
	"github.com/helixdb/helix/internal/hql/parser"
	"github.com/helixdb/helix/internal/kv"
	"github.com/helixdb/helix/internal/vector"
)

type testStore struct {
	g       *graph.Store
	indexes map[string]*vector.Index
}

func newTestStore() *testStore {
	return &testStore{g: graph.New(nil), indexes: map[string]*vector.Index{}}
}

func newIndexedTestStore(indices ...graph.IndexSpec) *testStore {
	return &testStore{g: graph.New(indices), indexes: map[string]*vector.Index{}}
}

func (s *testStore) Graph() *graph.Store { return s.g }

func (s *testStore) VectorIndex(label string) (*vector.Index, bool) {
	idx, ok := s.indexes[label]
	return idx, ok
}

func (s *testStore) withVectorIndex(label string, dim int) *vector.Index {
	idx := vector.New(vector.DefaultConfig(), dim)
	s.indexes[label] = idx
	return idx
}

func openTestEnv(t *testing.T) *kv.Env {
	t.Helper()
	env, err := kv.Open(kv.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

// compileOne parses+analyzes src and returns the single query plan it must
// contain, failing the test if analysis reports any diagnostic.
func compileOne(t *testing.T, src string) *Plan {
	t.Helper()
	parsed, err := parser.Parse(src)
	require.NoError(t, err)
	_, irs, diags := analyzer.Analyze(parsed)
	require.Empty(t, diags)
	require.Len(t, irs, 1)
	return Compile(irs[0])
}

// TestAddNAddEOutBoth adds two nodes and an edge between them in one
// query, then checks the edge is visible as an out-edge from the source
// and not from the target.
func TestAddNAddEOutBoth(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()

	addSrc := `
N::User { name: String }
E::Knows { From: User, To: User, Properties {} }

QUERY addUsers() =>
	a <- AddN<User>({name: "A"})
	b <- AddN<User>({name: "B"})
	e <- AddE<Knows>()::From(a)::To(b)
	RETURN a, b
`
	plan := compileOne(t, addSrc)
	assert.True(t, plan.Mutating())

	w := env.BeginWrite()
	out, err := plan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	require.Len(t, out, 2)

	aID, err := codec.ParseID(out[0].Array[0].Object["id"].Str)
	require.NoError(t, err)
	bID, err := codec.ParseID(out[1].Array[0].Object["id"].Str)
	require.NoError(t, err)

	r := env.BeginRead()
	defer r.Discard()
	node, err := store.Graph().GetNode(r, aID)
	require.NoError(t, err)
	assert.Equal(t, "User", node.Label)

	outEdges, err := store.Graph().OutEdges(r, aID, "Knows")
	require.NoError(t, err)
	require.Len(t, outEdges, 1)
	assert.Equal(t, bID, outEdges[0].To)

	bOutEdges, err := store.Graph().OutEdges(r, bID, "Knows")
	require.NoError(t, err)
	assert.Empty(t, bOutEdges)
}

// TestSearchVReturnsNearestNeighbor inserts a handful of vectors and
// checks that searching for the one matching the query exactly returns
// it first.
func TestSearchVReturnsNearestNeighbor(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()
	store.withVectorIndex("Doc", 4)

	src := `
V::Doc { tag: String }

QUERY insertDocs() =>
	a <- InsertV<Doc>(va, {tag: "a"})
	b <- InsertV<Doc>(vb, {tag: "b"})
	RETURN a, b
`
	plan := compileOne(t, src)
	w := env.BeginWrite()
	params := map[string]codec.Value{
		"va": codec.Array([]codec.Value{codec.F64(1), codec.F64(0), codec.F64(0), codec.F64(0)}),
		"vb": codec.Array([]codec.Value{codec.F64(0), codec.F64(1), codec.F64(0), codec.F64(0)}),
	}
	out, err := plan.Execute(w, store, params)
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	require.Len(t, out, 2)
	bID := out[1].Array[0].Object["id"].Str

	searchSrc := `
V::Doc { tag: String }

QUERY searchDocs() =>
	hits <- SearchV<Doc>(q, 1)
	RETURN hits
`
	searchPlan := compileOne(t, searchSrc)
	r := env.BeginRead()
	defer r.Discard()
	searchParams := map[string]codec.Value{
		"q": codec.Array([]codec.Value{codec.F64(0), codec.F64(1), codec.F64(0), codec.F64(0)}),
	}
	out, err = searchPlan.Execute(r, store, searchParams)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Array, 1)
	assert.Equal(t, bID, out[0].Array[0].Object["id"].Str)
}

// TestShortestPathFourNodes checks that a chain A->B->C->D has a
// shortest path of length 3.
func TestShortestPathFourNodes(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()

	src := `
N::Stop { name: String }
E::Road { From: Stop, To: Stop, Properties {} }

QUERY buildChain() =>
	a <- AddN<Stop>({name: "A"})
	b <- AddN<Stop>({name: "B"})
	c <- AddN<Stop>({name: "C"})
	d <- AddN<Stop>({name: "D"})
	e1 <- AddE<Road>()::From(a)::To(b)
	e2 <- AddE<Road>()::From(b)::To(c)
	e3 <- AddE<Road>()::From(c)::To(d)
	RETURN a, d
`
	plan := compileOne(t, src)
	w := env.BeginWrite()
	out, err := plan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	aID, err := codec.ParseID(out[0].Array[0].Object["id"].Str)
	require.NoError(t, err)
	dID, err := codec.ParseID(out[1].Array[0].Object["id"].Str)
	require.NoError(t, err)

	r := env.BeginRead()
	defer r.Discard()
	path, err := store.Graph().ShortestPath(r, "Road", aID, dID)
	require.NoError(t, err)
	assert.Len(t, path.Edges, 3)
}

// TestCountOverV exercises COUNT end to end over a V<Item> source.
func TestCountOverV(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()

	seed := `
N::Item { n: String }

QUERY seed() =>
	a <- AddN<Item>({n: "1"})
	b <- AddN<Item>({n: "2"})
	c <- AddN<Item>({n: "3"})
	RETURN a
`
	seedPlan := compileOne(t, seed)
	w := env.BeginWrite()
	_, err := seedPlan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	src := `
N::Item { n: String }

QUERY countItems() =>
	total <- V<Item>::COUNT
	RETURN total
`
	plan := compileOne(t, src)
	r := env.BeginRead()
	defer r.Discard()
	out, err := plan.Execute(r, store, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int32(3), out[0].I32)
}

// TestVFromIDReturnsSingleNode checks V(id) resolves exactly the node the
// id names, and V(ids) resolves the whole set.
func TestVFromIDReturnsSingleNode(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()

	seed := `
N::Item { n: String }

QUERY seed() =>
	a <- AddN<Item>({n: "1"})
	b <- AddN<Item>({n: "2"})
	RETURN a, b
`
	seedPlan := compileOne(t, seed)
	w := env.BeginWrite()
	out, err := seedPlan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	aID := out[0].Array[0].Object["id"].Str
	bID := out[1].Array[0].Object["id"].Str

	src := `
N::Item { n: String }

QUERY lookupOne() =>
	found <- V(id)
	RETURN found
`
	plan := compileOne(t, src)
	r := env.BeginRead()
	defer r.Discard()
	out, err = plan.Execute(r, store, map[string]codec.Value{"id": codec.String(aID)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Array, 1)
	assert.Equal(t, aID, out[0].Array[0].Object["id"].Str)

	multiSrc := `
N::Item { n: String }

QUERY lookupMany() =>
	found <- V(ids)
	RETURN found
`
	multiPlan := compileOne(t, multiSrc)
	out, err = multiPlan.Execute(r, store, map[string]codec.Value{
		"ids": codec.Array([]codec.Value{codec.String(aID), codec.String(bID)}),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Array, 2)
}

// TestAddEFromConnectsBoundIDToFlowingNodes checks AddEFrom wires an edge
// from a fixed id to every node currently flowing through the pipeline.
func TestAddEFromConnectsBoundIDToFlowingNodes(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()

	seed := `
N::Person { name: String }

QUERY seed() =>
	a <- AddN<Person>({name: "a"})
	RETURN a
`
	seedPlan := compileOne(t, seed)
	w := env.BeginWrite()
	out, err := seedPlan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	aID, err := codec.ParseID(out[0].Array[0].Object["id"].Str)
	require.NoError(t, err)

	src := `
N::Person { name: String }
E::Follows { From: Person, To: Person, Properties {} }

QUERY connect() =>
	b <- AddN<Person>({name: "b"})
	c <- AddN<Person>({name: "c"})
	targets <- V<Person>
	edges <- targets::AddEFrom<Follows>(fromID)
	RETURN edges
`
	plan := compileOne(t, src)
	w2 := env.BeginWrite()
	_, err = plan.Execute(w2, store, map[string]codec.Value{"fromID": codec.String(aID.String())})
	require.NoError(t, err)
	require.NoError(t, w2.Commit())

	r := env.BeginRead()
	defer r.Discard()
	outEdges, err := store.Graph().OutEdges(r, aID, "Follows")
	require.NoError(t, err)
	assert.Len(t, outEdges, 3)
}

// TestMapNodesProjectsPerItem checks MAP_NODES runs its closure once per
// flowing node, each bound to "_", collecting the results into a ValueArray.
func TestMapNodesProjectsPerItem(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()

	seed := `
N::Person { name: String }

QUERY seed() =>
	a <- AddN<Person>({name: "a"})
	b <- AddN<Person>({name: "b"})
	RETURN a
`
	seedPlan := compileOne(t, seed)
	w := env.BeginWrite()
	_, err := seedPlan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	src := `
N::Person { name: String }

QUERY names() =>
	projected <- V<Person>::ORDER_BY(name)::ASC::MAP_NODES(_::GET_PROPERTIES("name"))
	RETURN projected
`
	plan := compileOne(t, src)
	r := env.BeginRead()
	defer r.Discard()
	out, err := plan.Execute(r, store, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Array, 2)
	assert.Equal(t, "a", out[0].Array[0].Object["name"].Str)
	assert.Equal(t, "b", out[0].Array[1].Object["name"].Str)
}

// TestForEachNodesUpdatesEveryItem checks FOR_EACH_NODES runs its body for
// effect over every flowing node and marks the query mutating.
func TestForEachNodesUpdatesEveryItem(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()

	seed := `
N::Person { name: String, greeted: Bool }

QUERY seed() =>
	a <- AddN<Person>({name: "a", greeted: false})
	b <- AddN<Person>({name: "b", greeted: false})
	RETURN a, b
`
	seedPlan := compileOne(t, seed)
	w := env.BeginWrite()
	out, err := seedPlan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	aID, err := codec.ParseID(out[0].Array[0].Object["id"].Str)
	require.NoError(t, err)

	src := `
N::Person { name: String, greeted: Bool }

QUERY greetAll() =>
	all <- V<Person>::FOR_EACH_NODES(_::UpdateProps({greeted: true}))
	RETURN all
`
	plan := compileOne(t, src)
	assert.True(t, plan.Mutating())
	w2 := env.BeginWrite()
	_, err = plan.Execute(w2, store, nil)
	require.NoError(t, err)
	require.NoError(t, w2.Commit())

	r := env.BeginRead()
	defer r.Discard()
	node, err := store.Graph().GetNode(r, aID)
	require.NoError(t, err)
	assert.Equal(t, true, node.Properties["greeted"].Bool)
}

// TestVFromSecondaryIndexFindsIndexedNode is secondary-index
// property: looking a node up by an indexed field's value returns it, and a
// value no node carries returns nothing.
func TestVFromSecondaryIndexFindsIndexedNode(t *testing.T) {
	env := openTestEnv(t)
	store := newIndexedTestStore(graph.IndexSpec{Label: "Person", Fields: []string{"email"}})

	seed := `
N::Person { email: String }

QUERY seed() =>
	a <- AddN<Person>({email: "a@example.com"})
	b <- AddN<Person>({email: "b@example.com"})
	RETURN a
`
	seedPlan := compileOne(t, seed)
	w := env.BeginWrite()
	_, err := seedPlan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	src := `
N::Person { email: String }

QUERY lookup() =>
	found <- VFromSecondaryIndex<Person>("email", addr)
	RETURN found
`
	plan := compileOne(t, src)
	r := env.BeginRead()
	defer r.Discard()

	out, err := plan.Execute(r, store, map[string]codec.Value{"addr": codec.String("b@example.com")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	nodes := out[0].Array
	require.Len(t, nodes, 1)
	assert.Equal(t, "b@example.com", nodes[0].Object["properties"].Object["email"].Str)

	missing, err := plan.Execute(r, store, map[string]codec.Value{"addr": codec.String("nobody@example.com")})
	require.NoError(t, err)
	assert.Empty(t, missing[0].Array)
}

// TestWhereExistsFiltersByOutgoingEdge checks WHERE(EXISTS(...)) keeps only
// nodes with a matching outgoing edge, the `_::Out<Label>` closure
// convention resolved via the "_" pseudo-variable binding.
func TestWhereExistsFiltersByOutgoingEdge(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()

	seed := `
N::Person { name: String }
E::Follows { From: Person, To: Person, Properties {} }

QUERY seed() =>
	a <- AddN<Person>({name: "a"})
	b <- AddN<Person>({name: "b"})
	c <- AddN<Person>({name: "c"})
	e <- AddE<Follows>()::From(a)::To(b)
	RETURN a
`
	seedPlan := compileOne(t, seed)
	w := env.BeginWrite()
	_, err := seedPlan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	src := `
N::Person { name: String }
E::Follows { From: Person, To: Person, Properties {} }

QUERY followers() =>
	has <- V<Person>::WHERE(EXISTS(_::Out<Follows>))
	RETURN has
`
	plan := compileOne(t, src)
	r := env.BeginRead()
	defer r.Discard()
	out, err := plan.Execute(r, store, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	nodes := out[0].Array
	require.Len(t, nodes, 1)
	assert.Equal(t, "a", nodes[0].Object["properties"].Object["name"].Str)
}

// TestWhereOrCombinesPredicates checks OR(...) keeps a node matching
// either branch.
func TestWhereOrCombinesPredicates(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()

	seed := `
N::Person { name: String }
E::Follows { From: Person, To: Person, Properties {} }

QUERY seed() =>
	a <- AddN<Person>({name: "a"})
	b <- AddN<Person>({name: "b"})
	c <- AddN<Person>({name: "c"})
	e <- AddE<Follows>()::From(a)::To(b)
	RETURN a
`
	seedPlan := compileOne(t, seed)
	w := env.BeginWrite()
	_, err := seedPlan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	src := `
N::Person { name: String }
E::Follows { From: Person, To: Person, Properties {} }

QUERY connected() =>
	linked <- V<Person>::WHERE(OR(EXISTS(_::Out<Follows>), EXISTS(_::In_<Follows>)))::ORDER_BY(name)::ASC
	RETURN linked
`
	plan := compileOne(t, src)
	r := env.BeginRead()
	defer r.Discard()
	out, err := plan.Execute(r, store, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	nodes := out[0].Array
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].Object["properties"].Object["name"].Str)
	assert.Equal(t, "b", nodes[1].Object["properties"].Object["name"].Str)
}

// TestAndRequiresBothBranches checks AND(...) rejects a node matching only
// one of its branches.
func TestAndRequiresBothBranches(t *testing.T) {
	env := openTestEnv(t)
	store := newTestStore()

	seed := `
N::Person { name: String }
E::Follows { From: Person, To: Person, Properties {} }

QUERY seed() =>
	a <- AddN<Person>({name: "a"})
	b <- AddN<Person>({name: "b"})
	e <- AddE<Follows>()::From(a)::To(b)
	RETURN a
`
	seedPlan := compileOne(t, seed)
	w := env.BeginWrite()
	_, err := seedPlan.Execute(w, store, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	src := `
N::Person { name: String }
E::Follows { From: Person, To: Person, Properties {} }

QUERY mutual() =>
	both <- V<Person>::WHERE(AND(EXISTS(_::Out<Follows>), EXISTS(_::In_<Follows>)))
	RETURN both
`
	plan := compileOne(t, src)
	r := env.BeginRead()
	defer r.Discard()
	out, err := plan.Execute(r, store, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Array)
}
