package qdrantvec

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/vector"
)

// fakeClient records calls and replays scripted query results.
type fakeClient struct {
	created     *qdrant.CreateCollection
	createErr   error
	upserts     []*qdrant.UpsertPoints
	queries     []*qdrant.QueryPoints
	queryResult []*qdrant.ScoredPoint
	dropped     []string
	closed      bool
}

func (f *fakeClient) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	f.created = req
	return f.createErr
}

func (f *fakeClient) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeClient) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queries = append(f.queries, req)
	return f.queryResult, nil
}

func (f *fakeClient) DeleteCollection(_ context.Context, name string) error {
	f.dropped = append(f.dropped, name)
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("ParseTarget", func() {
	It("defaults to localhost:6334", func() {
		host, port, err := ParseTarget("")
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("localhost"))
		Expect(port).To(Equal(6334))
	})

	It("splits host and port", func() {
		host, port, err := ParseTarget("qdrant.local:7000")
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("qdrant.local"))
		Expect(port).To(Equal(7000))
	})

	It("accepts a bare host", func() {
		host, port, err := ParseTarget("qdrant.local")
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("qdrant.local"))
		Expect(port).To(Equal(6334))
	})

	It("rejects a bad port", func() {
		_, _, err := ParseTarget("qdrant.local:abc")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Index", func() {
	var (
		ctx    context.Context
		client *fakeClient
		idx    *Index
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &fakeClient{}

		var err error
		idx, err = newIndex(ctx, client, Config{Dimensions: 2}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	It("implements vector.Index", func() {
		var _ vector.Index = (*Index)(nil)
	})

	It("creates a uniquely named Euclid collection", func() {
		Expect(client.created).NotTo(BeNil())
		Expect(client.created.GetCollectionName()).To(HavePrefix("docqa-"))
		Expect(idx.Collection()).To(Equal(client.created.GetCollectionName()))
	})

	It("requires dimensions", func() {
		_, err := newIndex(ctx, &fakeClient{}, Config{}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("wraps collection failures as connection errors", func() {
		_, err := newIndex(ctx, &fakeClient{createErr: errors.New("unavailable")}, Config{Dimensions: 2}, logger.Nop())
		Expect(err).To(MatchError(vector.ErrConnection))
	})

	It("returns ErrEmptyIndex before any upsert", func() {
		_, err := idx.Search(ctx, []float32{0, 0}, 1)
		Expect(err).To(MatchError(vector.ErrEmptyIndex))
		Expect(client.queries).To(BeEmpty())
	})

	It("upserts slot numbers as point ids", func() {
		Expect(idx.Add(ctx, [][]float32{{0, 0}, {1, 1}})).To(Succeed())
		Expect(idx.Add(ctx, [][]float32{{2, 2}})).To(Succeed())

		Expect(client.upserts).To(HaveLen(2))
		Expect(client.upserts[0].GetPoints()[1].GetId().GetNum()).To(Equal(uint64(1)))
		Expect(client.upserts[1].GetPoints()[0].GetId().GetNum()).To(Equal(uint64(2)))
		Expect(client.upserts[0].GetWait()).To(BeTrue())
		Expect(idx.Len()).To(Equal(3))
	})

	It("rejects vectors of the wrong dimension", func() {
		Expect(idx.Add(ctx, [][]float32{{0, 0, 0}})).To(MatchError(vector.ErrDimensionMismatch))
		Expect(client.upserts).To(BeEmpty())
	})

	It("squares scores, clamps the limit and applies the slot tie-break", func() {
		Expect(idx.Add(ctx, [][]float32{{0, 0}, {1, 0}, {0, 1}})).To(Succeed())
		client.queryResult = []*qdrant.ScoredPoint{
			{Id: qdrant.NewIDNum(2), Score: 1},
			{Id: qdrant.NewIDNum(1), Score: 1},
			{Id: qdrant.NewIDNum(0), Score: 2},
		}

		results, err := idx.Search(ctx, []float32{0, 0}, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(client.queries[0].GetLimit()).To(Equal(uint64(3)))
		Expect(results).To(Equal([]vector.Result{
			{Slot: 1, Distance: 1},
			{Slot: 2, Distance: 1},
			{Slot: 0, Distance: 4},
		}))
	})

	It("drops the collection on close", func() {
		Expect(idx.Close()).To(Succeed())
		Expect(client.dropped).To(ConsistOf(idx.Collection()))
		Expect(client.closed).To(BeTrue())
	})
})
