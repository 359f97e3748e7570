package condition

import (
	"context"

	"icc.tech/scheduled/internal/bucket"
	"icc.tech/scheduled/internal/hashutil"
)

// BucketCondition is the event-driven condition kind (§4.3.4): its Check
// consults the shared ExecutionBucket only, with no timers or polling of
// its own. Events fire it by inserting its name into the bucket.
//
// Grounded on original_source/src/condition/bucket_cond.rs.
type BucketCondition struct {
	Base
	bucket *bucket.ExecutionBucket
}

// NewBucketCondition constructs a bucket-backed condition. b must be the
// process-wide ExecutionBucket, attached by the configuration applier
// after construction.
func NewBucketCondition(base Base, b *bucket.ExecutionBucket) *BucketCondition {
	return &BucketCondition{Base: base, bucket: b}
}

// Type implements Condition.
func (c *BucketCondition) Type() string { return "bucket" }

// ContentHash implements Condition.
func (c *BucketCondition) ContentHash() uint64 {
	return c.MixCommon(hashutil.NewBuilder()).String("bucket").Sum()
}

// Check implements Condition. If the condition's own name is present in
// the bucket, it is removed and Verified is returned; otherwise
// NotVerified.
func (c *BucketCondition) Check(ctx context.Context) CheckResult {
	if c.bucket.Remove(c.Name()) {
		return Verified
	}
	return NotVerified
}
