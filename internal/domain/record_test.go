package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTransferRecord(t *testing.T) {
	record := NewTransferRecord("https://example.com/video.mp4")

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "https://example.com/video.mp4", record.PageURL)
	assert.False(t, record.StartedAt.IsZero())
	assert.Nil(t, record.CompletedAt)
	assert.Zero(t, record.Duration())
}

func TestTransferRecord_MarkFinishedCompleted(t *testing.T) {
	record := NewTransferRecord("https://example.com/video.mp4")

	record.MarkFinished(&TransferResult{
		FilePath:      "/tmp/video.mp4",
		Status:        TransferCompleted,
		Mode:          ModeResume,
		Stream:        "default",
		InitialOffset: 500,
		BytesWritten:  500,
		ContentLength: 1000,
		ContentType:   "video/mp4",
	}, nil)

	assert.Equal(t, TransferCompleted, record.Status)
	assert.Equal(t, ModeResume, record.Mode)
	assert.Equal(t, "/tmp/video.mp4", record.FilePath)
	assert.Equal(t, int64(500), record.InitialOffset)
	assert.NotNil(t, record.CompletedAt)
	assert.False(t, record.IsFailed())
}

func TestTransferRecord_MarkFinishedFailed(t *testing.T) {
	record := NewTransferRecord("https://example.com/video.mp4")
	err := NewTransferError(ReasonNetwork, errors.New("boom"), "transport: %s", "boom")

	record.MarkFinished(nil, err)

	assert.Equal(t, TransferFailed, record.Status)
	assert.Equal(t, ReasonNetwork, record.Reason)
	assert.Equal(t, "transport: boom", record.ErrorMessage)
	assert.True(t, record.IsFailed())
}

func TestTransferRecord_MarkFinishedWithoutResult(t *testing.T) {
	record := NewTransferRecord("https://example.com/video.mp4")

	record.MarkFinished(nil, nil)

	assert.Equal(t, TransferCompleted, record.Status)
}

func TestParseResumeFrom(t *testing.T) {
	tests := []struct {
		input    string
		expected ResumeFrom
		legacy   bool
	}{
		{"", ResumeFrom{Mode: ResumeAuto}, false},
		{"auto", ResumeFrom{Mode: ResumeAuto}, false},
		{"AUTO", ResumeFrom{Mode: ResumeAuto}, false},
		{"none", ResumeFrom{Mode: ResumeNone}, false},
		{"overwrite", ResumeFrom{Mode: ResumeForceOverwrite}, false},
		{"0", ResumeFrom{Mode: ResumeAuto}, false},
		{"1024", ResumeFrom{Mode: ResumeFromOffset, Offset: 1024}, false},
		{"-1", ResumeFrom{Mode: ResumeForceOverwrite}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, legacy, err := ParseResumeFrom(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, tt.legacy, legacy)
		})
	}
}

func TestParseResumeFrom_Invalid(t *testing.T) {
	_, _, err := ParseResumeFrom("later")
	assert.Error(t, err)
}

func TestResumeFrom_String(t *testing.T) {
	assert.Equal(t, "auto", ResumeFrom{Mode: ResumeAuto}.String())
	assert.Equal(t, "42", ResumeFrom{Mode: ResumeFromOffset, Offset: 42}.String())
	assert.Equal(t, "overwrite", ResumeFrom{Mode: ResumeForceOverwrite}.String())
}

func TestTransferError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewTransferError(ReasonLocalIO, inner, "while writing to file: %v", inner)

	assert.Equal(t, "while writing to file: disk full", err.Error())
	assert.True(t, errors.Is(err, inner))
	assert.Equal(t, ReasonLocalIO, ReasonOf(err))
	assert.Equal(t, Reason(""), ReasonOf(inner))
}

func TestTransferResult_Succeeded(t *testing.T) {
	var nilResult *TransferResult
	assert.False(t, nilResult.Succeeded())
	assert.True(t, (&TransferResult{Status: TransferCompleted}).Succeeded())
	assert.True(t, (&TransferResult{Status: TransferSkipped}).Succeeded())
	assert.False(t, (&TransferResult{Status: TransferFailed}).Succeeded())
}

func TestMedia_DefaultStream(t *testing.T) {
	var empty *Media
	_, ok := empty.DefaultStream()
	assert.False(t, ok)

	media := &Media{Streams: []StreamDescriptor{{ID: "hd"}, {ID: ""}}}
	stream, ok := media.DefaultStream()
	assert.True(t, ok)
	assert.Equal(t, "hd", stream.ID)
	assert.Equal(t, []string{"hd", "default"}, media.StreamIDs())
}
