//go:generate mockgen -destination=mock_interfaces.go -package=mocks github.com/alejoacosta74/thalex-api/internal/kafka ProducerPool
//go:generate mockgen -destination=mock_message_handler.go -package=mocks github.com/alejoacosta74/thalex-api/internal/dispatcher MessageHandler
//go:generate mockgen -destination=mock_event_bus.go -package=mocks github.com/alejoacosta74/thalex-api/internal/events Bus
//go:generate mockgen -destination=mock_message_sender.go -package=mocks github.com/alejoacosta74/thalex-api/internal/dispatcher/handlers MessageSender

// Package mocks holds gomock mocks of the pipeline interfaces.
package mocks
