package services

import "errors"

// Ошибки бизнес-правил движка, маппятся на HTTP в handlers.
var (
	// Ресурсы
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrResultNotFound     = errors.New("tournament result not found")

	// Валидация конфигурации сетки; при любой из них сетка не создается вовсе.
	ErrInvalidTopologyInput = errors.New("invalid bracket configuration")
	ErrRosterSizeMismatch   = errors.New("player roster size does not match team_count * players_per_team")
	ErrTeamSizeInvalid      = errors.New("players per team must be 1 or 2")
	ErrManualGroupsInvalid  = errors.New("manual team groups do not cover the roster exactly")

	// Жизненный цикл матча
	ErrMatchAlreadyStarted  = errors.New("match already started")
	ErrMatchAlreadyFinished = errors.New("match already finished")
	ErrMatchNotReady        = errors.New("match sides are not filled yet")
	ErrTiedScore            = errors.New("match score must have a strict winner")
	ErrInvalidScore         = errors.New("match scores must be non-negative")
	ErrInvalidForfeitSide   = errors.New("forfeit side must be 1 or 2")

	// Продвижение по сетке
	ErrDownstreamMatchNotFound = errors.New("downstream match not found")
	ErrSlotConflict            = errors.New("both downstream slots already occupied")

	// Турнир
	ErrTournamentFinished = errors.New("tournament is finished and immutable")

	// Аватары
	ErrAvatarStorageDisabled = errors.New("avatar storage is not configured")
	ErrAvatarContentType     = errors.New("avatar content type must be image/jpeg, image/png or image/webp")
)
