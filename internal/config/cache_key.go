package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuizPayloadKey returns the cache key for a published quiz's
// student-facing paper (questions without correctness data).
func (r *CacheKeyStruct) QuizPayloadKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:payload", quizID)
}

// CourseMonitorChannel returns the Redis PubSub channel carrying
// attempt submission events for a course.
func (r *CacheKeyStruct) CourseMonitorChannel(courseID string) string {
	return fmt.Sprintf("course:%s:monitor", courseID)
}

var CacheKey = NewCacheKeyStruct()
