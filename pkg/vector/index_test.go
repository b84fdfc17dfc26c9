package vector_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/vector"
	"github.com/papercomputeco/docqa/pkg/vector/flat"
)

var _ = Describe("Dimensions", func() {
	It("reports zero for no vectors", func() {
		dims, err := vector.Dimensions(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(dims).To(Equal(0))
	})

	It("returns the shared length", func() {
		dims, err := vector.Dimensions([][]float32{{1, 2}, {3, 4}})
		Expect(err).NotTo(HaveOccurred())
		Expect(dims).To(Equal(2))
	})

	It("rejects mixed lengths", func() {
		_, err := vector.Dimensions([][]float32{{1, 2}, {3, 4, 5}})
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))
	})
})

var _ = Describe("Build", func() {
	It("refuses to insert anything when dimensions disagree", func() {
		idx := flat.NewIndex(flat.Config{}, logger.Nop())

		err := vector.Build(context.Background(), idx, [][]float32{{1, 0}, {0, 1, 0}})
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		Expect(idx.Len()).To(Equal(0))
	})

	It("inserts every vector in order", func() {
		idx := flat.NewIndex(flat.Config{}, logger.Nop())

		err := vector.Build(context.Background(), idx, [][]float32{{0}, {1}, {2}})
		Expect(err).NotTo(HaveOccurred())
		Expect(idx.Len()).To(Equal(3))
	})
})

var _ = Describe("CheckQuery", func() {
	It("flags an empty index first", func() {
		Expect(vector.CheckQuery(0, 0, nil, 0)).To(MatchError(vector.ErrEmptyIndex))
	})

	It("rejects non-positive k", func() {
		Expect(vector.CheckQuery(3, 2, []float32{0, 0}, 0)).To(MatchError(vector.ErrInvalidK))
	})

	It("rejects a query of the wrong length", func() {
		Expect(vector.CheckQuery(3, 2, []float32{0}, 1)).To(MatchError(vector.ErrDimensionMismatch))
	})

	It("accepts a well formed query", func() {
		Expect(vector.CheckQuery(3, 2, []float32{0, 0}, 5)).To(Succeed())
	})
})

var _ = Describe("SquaredL2", func() {
	It("does not take the square root", func() {
		Expect(vector.SquaredL2([]float32{0, 0}, []float32{3, 4})).To(Equal(float32(25)))
	})

	It("is zero for identical vectors", func() {
		Expect(vector.SquaredL2([]float32{1, 2, 3}, []float32{1, 2, 3})).To(BeZero())
	})
})

var _ = Describe("SortResults", func() {
	It("orders by distance and breaks ties on the lower slot", func() {
		results := []vector.Result{
			{Slot: 4, Distance: 1},
			{Slot: 2, Distance: 0.5},
			{Slot: 1, Distance: 1},
			{Slot: 0, Distance: 2},
		}

		vector.SortResults(results)

		Expect(results).To(Equal([]vector.Result{
			{Slot: 2, Distance: 0.5},
			{Slot: 1, Distance: 1},
			{Slot: 4, Distance: 1},
			{Slot: 0, Distance: 2},
		}))
	})
})
