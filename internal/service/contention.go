package service

import (
	"go-gin-event-ticketing/internal/repository"
)

// retryOnContention 儲存層回報鎖衝突或 serialization failure 時只重試一次
func retryOnContention[T any](op func() (T, error)) (T, error) {
	v, err := op()
	if err != nil && repository.IsContention(err) {
		return op()
	}
	return v, err
}
