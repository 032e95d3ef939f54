// Package memstore evaluates the aggregation-pipeline subset the query
// catalog uses against in-memory collections. It exists so the catalog
// and its stage semantics are testable without a running server; the
// live path goes through database.Store instead.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rabinkaspal/mongodb-aggregation/errs"
)

// DB holds named in-memory collections of documents.
type DB struct {
	collections map[string][]bson.M
}

func New() *DB {
	return &DB{collections: make(map[string][]bson.M)}
}

// Insert appends documents to the named collection.
func (d *DB) Insert(collection string, docs ...bson.M) {
	d.collections[collection] = append(d.collections[collection], docs...)
}

// Drop removes the named collection.
func (d *DB) Drop(collection string) {
	delete(d.collections, collection)
}

// Count returns the number of documents in the named collection.
func (d *DB) Count(collection string) int {
	return len(d.collections[collection])
}

// Aggregate runs a pipeline against the named collection. It implements
// the same contract as database.Store.Aggregate.
func (d *DB) Aggregate(_ context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error) {
	docs := append([]bson.M(nil), d.collections[collection]...)
	return d.run(docs, []bson.D(pipeline))
}

func (d *DB) run(docs []bson.M, stages []bson.D) ([]bson.M, error) {
	var err error
	for _, stage := range stages {
		if len(stage) != 1 {
			return nil, fmt.Errorf("%w: a pipeline stage must have exactly one key", errs.ErrQuery)
		}
		name, spec := stage[0].Key, stage[0].Value
		switch name {
		case "$match":
			docs, err = stageMatch(docs, spec)
		case "$sort":
			docs, err = stageSort(docs, spec)
		case "$limit":
			docs, err = stageLimit(docs, spec)
		case "$project":
			docs, err = stageProject(docs, spec)
		case "$group":
			docs, err = stageGroup(docs, spec)
		case "$unwind":
			docs, err = stageUnwind(docs, spec)
		case "$lookup":
			docs, err = d.stageLookup(docs, spec)
		case "$facet":
			docs, err = d.stageFacet(docs, spec)
		case "$bucket":
			docs, err = stageBucket(docs, spec)
		default:
			return nil, fmt.Errorf("%w: unsupported stage %q", errs.ErrQuery, name)
		}
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func stageMatch(docs []bson.M, spec interface{}) ([]bson.M, error) {
	filter, ok := asM(spec)
	if !ok {
		return nil, fmt.Errorf("%w: $match takes a document", errs.ErrQuery)
	}
	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		matched, err := matchFilter(doc, filter)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, doc)
		}
	}
	return out, nil
}

type sortKey struct {
	path string
	desc bool
}

func stageSort(docs []bson.M, spec interface{}) ([]bson.M, error) {
	var keys []sortKey
	switch s := spec.(type) {
	case bson.D:
		for _, e := range s {
			dir, _ := toFloat(e.Value)
			keys = append(keys, sortKey{path: e.Key, desc: dir < 0})
		}
	case bson.M:
		if len(s) > 1 {
			return nil, fmt.Errorf("%w: multi-key $sort must be a bson.D to keep key order", errs.ErrQuery)
		}
		for k, v := range s {
			dir, _ := toFloat(v)
			keys = append(keys, sortKey{path: k, desc: dir < 0})
		}
	default:
		return nil, fmt.Errorf("%w: $sort takes a document", errs.ErrQuery)
	}

	out := append([]bson.M(nil), docs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		for _, k := range keys {
			av, _ := getPath(a, k.path)
			bv, _ := getPath(b, k.path)
			c, comparable := compareValues(av, bv)
			if !comparable || c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out, nil
}

func stageLimit(docs []bson.M, spec interface{}) ([]bson.M, error) {
	n, ok := toFloat(spec)
	if !ok || n < 0 {
		return nil, fmt.Errorf("%w: $limit takes a non-negative number", errs.ErrQuery)
	}
	if int(n) < len(docs) {
		docs = docs[:int(n)]
	}
	return docs, nil
}

func stageProject(docs []bson.M, spec interface{}) ([]bson.M, error) {
	entries, err := specEntries(spec, "$project")
	if err != nil {
		return nil, err
	}

	exclusionOnly := true
	for _, e := range entries {
		if !isExclusion(e.Value) {
			exclusionOnly = false
			break
		}
	}

	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		if exclusionOnly {
			projected := cloneDoc(doc)
			for _, e := range entries {
				delete(projected, e.Key)
			}
			out = append(out, projected)
			continue
		}

		projected := bson.M{}
		includeID := true
		for _, e := range entries {
			switch {
			case isExclusion(e.Value):
				if e.Key == "_id" {
					includeID = false
				}
			case isInclusion(e.Value):
				if v, ok := getPath(doc, e.Key); ok {
					projected[e.Key] = v
				}
			default:
				v, err := evalExpr(e.Value, doc, nil)
				if err != nil {
					return nil, err
				}
				projected[e.Key] = v
			}
		}
		if includeID {
			if _, set := projected["_id"]; !set {
				if id, ok := doc["_id"]; ok {
					projected["_id"] = id
				}
			}
		}
		out = append(out, projected)
	}
	return out, nil
}

func stageGroup(docs []bson.M, spec interface{}) ([]bson.M, error) {
	m, ok := asM(spec)
	if !ok {
		return nil, fmt.Errorf("%w: $group takes a document", errs.ErrQuery)
	}
	idExpr, hasID := m["_id"]
	if !hasID {
		return nil, fmt.Errorf("%w: $group requires an _id expression", errs.ErrQuery)
	}

	type bucket struct {
		key  interface{}
		docs []bson.M
	}
	var order []string
	groups := make(map[string]*bucket)
	for _, doc := range docs {
		key, err := evalExpr(idExpr, doc, nil)
		if err != nil {
			return nil, err
		}
		ks := keyString(key)
		g, ok := groups[ks]
		if !ok {
			g = &bucket{key: key}
			groups[ks] = g
			order = append(order, ks)
		}
		g.docs = append(g.docs, doc)
	}

	out := make([]bson.M, 0, len(order))
	for _, ks := range order {
		g := groups[ks]
		res := bson.M{"_id": g.key}
		if err := applyAccumulators(res, m, g.docs); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// applyAccumulators fills res with every non-_id accumulator in spec,
// computed over docs. Shared between $group and $bucket.
func applyAccumulators(res bson.M, spec bson.M, docs []bson.M) error {
	for name, accSpec := range spec {
		if name == "_id" {
			continue
		}
		accDoc, ok := asM(accSpec)
		if !ok || len(accDoc) != 1 {
			return fmt.Errorf("%w: accumulator %q must be a single-operator document", errs.ErrQuery, name)
		}
		for op, operand := range accDoc {
			v, err := accumulate(op, operand, docs)
			if err != nil {
				return err
			}
			res[name] = v
		}
	}
	return nil
}

func accumulate(op string, operand interface{}, docs []bson.M) (interface{}, error) {
	switch op {
	case "$sum":
		var sum float64
		for _, doc := range docs {
			v, err := evalExpr(operand, doc, nil)
			if err != nil {
				return nil, err
			}
			if n, ok := toFloat(v); ok {
				sum += n
			}
		}
		return sum, nil
	case "$avg":
		var sum float64
		var count int
		for _, doc := range docs {
			v, err := evalExpr(operand, doc, nil)
			if err != nil {
				return nil, err
			}
			if n, ok := toFloat(v); ok {
				sum += n
				count++
			}
		}
		if count == 0 {
			return nil, nil
		}
		return sum / float64(count), nil
	case "$min", "$max":
		var best interface{}
		for _, doc := range docs {
			v, err := evalExpr(operand, doc, nil)
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			c, comparable := compareValues(v, best)
			if !comparable {
				continue
			}
			if (op == "$min" && c < 0) || (op == "$max" && c > 0) {
				best = v
			}
		}
		return best, nil
	case "$push":
		out := make([]interface{}, 0, len(docs))
		for _, doc := range docs {
			v, err := evalExpr(operand, doc, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported accumulator %q", errs.ErrQuery, op)
}

func stageUnwind(docs []bson.M, spec interface{}) ([]bson.M, error) {
	path := ""
	switch s := spec.(type) {
	case string:
		path = s
	default:
		if m, ok := asM(spec); ok {
			path, _ = m["path"].(string)
		}
	}
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("%w: $unwind path must start with $", errs.ErrQuery)
	}
	field := path[1:]

	var out []bson.M
	for _, doc := range docs {
		v, found := getPath(doc, field)
		if !found || v == nil {
			continue
		}
		arr, ok := asArray(v)
		if !ok {
			out = append(out, doc)
			continue
		}
		for _, el := range arr {
			flat := cloneDoc(doc)
			setPath(flat, field, el)
			out = append(out, flat)
		}
	}
	return out, nil
}

func (d *DB) stageLookup(docs []bson.M, spec interface{}) ([]bson.M, error) {
	m, ok := asM(spec)
	if !ok {
		return nil, fmt.Errorf("%w: $lookup takes a document", errs.ErrQuery)
	}
	from, _ := m["from"].(string)
	localField, _ := m["localField"].(string)
	foreignField, _ := m["foreignField"].(string)
	as, _ := m["as"].(string)
	if from == "" || localField == "" || foreignField == "" || as == "" {
		return nil, fmt.Errorf("%w: $lookup requires from, localField, foreignField and as", errs.ErrQuery)
	}

	foreign := d.collections[from]
	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		local, _ := getPath(doc, localField)
		matches := make([]interface{}, 0)
		for _, f := range foreign {
			fv, _ := getPath(f, foreignField)
			if equalOrContains(local, fv) {
				matches = append(matches, f)
			}
		}
		joined := cloneDoc(doc)
		setPath(joined, as, matches)
		out = append(out, joined)
	}
	return out, nil
}

func (d *DB) stageFacet(docs []bson.M, spec interface{}) ([]bson.M, error) {
	m, ok := asM(spec)
	if !ok {
		return nil, fmt.Errorf("%w: $facet takes a document", errs.ErrQuery)
	}
	res := bson.M{}
	for name, sub := range m {
		stages, err := asPipeline(sub)
		if err != nil {
			return nil, fmt.Errorf("facet %q: %w", name, err)
		}
		facetDocs, err := d.run(append([]bson.M(nil), docs...), stages)
		if err != nil {
			return nil, fmt.Errorf("facet %q: %w", name, err)
		}
		res[name] = facetDocs
	}
	return []bson.M{res}, nil
}

func stageBucket(docs []bson.M, spec interface{}) ([]bson.M, error) {
	m, ok := asM(spec)
	if !ok {
		return nil, fmt.Errorf("%w: $bucket takes a document", errs.ErrQuery)
	}
	groupBy := m["groupBy"]
	rawBounds, ok := asArray(m["boundaries"])
	if !ok || len(rawBounds) < 2 {
		return nil, fmt.Errorf("%w: $bucket requires at least two boundaries", errs.ErrQuery)
	}
	bounds := make([]float64, len(rawBounds))
	for i, b := range rawBounds {
		n, ok := toFloat(b)
		if !ok {
			return nil, fmt.Errorf("%w: $bucket boundaries must be numeric", errs.ErrQuery)
		}
		if i > 0 && n <= bounds[i-1] {
			return nil, fmt.Errorf("%w: $bucket boundaries must be ascending", errs.ErrQuery)
		}
		bounds[i] = n
	}
	defaultID, hasDefault := m["default"]

	output, _ := asM(m["output"])
	if output == nil {
		output = bson.M{"count": bson.M{"$sum": 1}}
	}

	buckets := make([][]bson.M, len(bounds)-1)
	var defaultDocs []bson.M
	for _, doc := range docs {
		v, err := evalExpr(groupBy, doc, nil)
		if err != nil {
			return nil, err
		}
		n, numeric := toFloat(v)
		placed := false
		if numeric {
			for i := 0; i < len(bounds)-1; i++ {
				if n >= bounds[i] && n < bounds[i+1] {
					buckets[i] = append(buckets[i], doc)
					placed = true
					break
				}
			}
		}
		if !placed {
			if !hasDefault {
				return nil, fmt.Errorf("%w: $bucket value out of range and no default bucket", errs.ErrQuery)
			}
			defaultDocs = append(defaultDocs, doc)
		}
	}

	var out []bson.M
	for i, group := range buckets {
		if len(group) == 0 {
			continue
		}
		res := bson.M{"_id": rawBounds[i]}
		if err := applyAccumulators(res, output, group); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if len(defaultDocs) > 0 {
		res := bson.M{"_id": defaultID}
		if err := applyAccumulators(res, output, defaultDocs); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

type specEntry struct {
	Key   string
	Value interface{}
}

func specEntries(spec interface{}, stage string) ([]specEntry, error) {
	switch s := spec.(type) {
	case bson.D:
		out := make([]specEntry, 0, len(s))
		for _, e := range s {
			out = append(out, specEntry{Key: e.Key, Value: e.Value})
		}
		return out, nil
	case bson.M:
		out := make([]specEntry, 0, len(s))
		for k, v := range s {
			out = append(out, specEntry{Key: k, Value: v})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s takes a document", errs.ErrQuery, stage)
}

func isExclusion(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return !b
	}
	if n, ok := toFloat(v); ok {
		return n == 0
	}
	return false
}

func isInclusion(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	if n, ok := toFloat(v); ok {
		return n != 0
	}
	return false
}

func asPipeline(v interface{}) ([]bson.D, error) {
	switch p := v.(type) {
	case mongo.Pipeline:
		return []bson.D(p), nil
	case []bson.D:
		return p, nil
	case bson.A:
		return stageSlice([]interface{}(p))
	case []interface{}:
		return stageSlice(p)
	}
	return nil, fmt.Errorf("%w: not a pipeline", errs.ErrQuery)
}

func stageSlice(raw []interface{}) ([]bson.D, error) {
	out := make([]bson.D, 0, len(raw))
	for _, s := range raw {
		switch stage := s.(type) {
		case bson.D:
			out = append(out, stage)
		case bson.M:
			if len(stage) != 1 {
				return nil, fmt.Errorf("%w: a pipeline stage must have exactly one key", errs.ErrQuery)
			}
			for k, v := range stage {
				out = append(out, bson.D{{Key: k, Value: v}})
			}
		default:
			return nil, fmt.Errorf("%w: not a pipeline stage", errs.ErrQuery)
		}
	}
	return out, nil
}
