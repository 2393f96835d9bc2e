// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
)

func TestS3Options(t *testing.T) {
	assert.Empty(t, s3Options(options{}))

	fns := s3Options(options{endpoint: "http://localhost:9000"})
	assert.Len(t, fns, 1)

	var so s3v2.Options
	fns[0](&so)
	assert.Equal(t, "http://localhost:9000", awsv2.ToString(so.BaseEndpoint))
	assert.True(t, so.UsePathStyle)
}
