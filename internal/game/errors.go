package game

import "errors"

var ErrLobbyFull = errors.New("lobby is full")
var ErrNameCollision = errors.New("name already taken")
var ErrInvalidName = errors.New("invalid player name")
var ErrAlreadyMatched = errors.New("pair already matched")
var ErrSessionNotFound = errors.New("session not found")
var ErrNotEnoughWords = errors.New("not enough words for board")
var ErrUpstreamUnavailable = errors.New("upstream unavailable")
