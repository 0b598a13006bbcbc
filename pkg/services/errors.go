package services

import "errors"

var (
	// ErrModelNotReady モデルがまだロードも作成もされていない
	ErrModelNotReady = errors.New("demand model not loaded")
	// ErrInvalidInput 入力の構造や値が不正
	ErrInvalidInput = errors.New("invalid input")
)
