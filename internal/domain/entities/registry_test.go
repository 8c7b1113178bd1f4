package entities_test

import (
	"testing"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
)

func TestRegistryLazyCreate(t *testing.T) {
	registry := entities.NewQueueRegistry()

	if registry.Peek("guild1", valueobjects.SourceYouTube) != nil {
		t.Error("Peek must not create queues")
	}

	queue := registry.Get("guild1", valueobjects.SourceYouTube)
	if queue == nil {
		t.Fatal("Get should create the queue")
	}
	if registry.Get("guild1", valueobjects.SourceYouTube) != queue {
		t.Error("Get should return the same queue on repeat calls")
	}
	if registry.Peek("guild1", valueobjects.SourceYouTube) != queue {
		t.Error("Peek should now see the created queue")
	}
}

func TestRegistrySeparateSlots(t *testing.T) {
	registry := entities.NewQueueRegistry()

	yt := registry.Get("guild1", valueobjects.SourceYouTube)
	sc := registry.Get("guild1", valueobjects.SourceSoundCloud)
	other := registry.Get("guild2", valueobjects.SourceYouTube)

	if yt == sc {
		t.Error("Source slots in the same guild must be distinct queues")
	}
	if yt == other {
		t.Error("Guilds must not share queues")
	}
}

func TestRegistryClearOthers(t *testing.T) {
	registry := entities.NewQueueRegistry()

	yt := registry.Get("guild1", valueobjects.SourceYouTube)
	sc := registry.Get("guild1", valueobjects.SourceSoundCloud)
	uni := registry.Get("guild1", valueobjects.SourceUniversal)

	for _, queue := range []*entities.Queue{yt, sc, uni} {
		queue.Enqueue(entities.NewTrack("url", queue.Source(), nil, "tester"))
	}

	registry.ClearOthers("guild1", valueobjects.SourceSoundCloud)

	if sc.Size() != 1 {
		t.Error("The kept source's queue must survive")
	}
	if yt.Size() != 0 || uni.Size() != 0 {
		t.Error("Every other queue must be emptied")
	}
}

func TestRegistryDefaultVolume(t *testing.T) {
	registry := entities.NewQueueRegistry()
	registry.SetDefaultVolume(80)

	queue := registry.Get("guild1", valueobjects.SourceYouTube)
	if queue.Volume() != 80 {
		t.Errorf("Expected new queues to start at volume 80, got %d", queue.Volume())
	}

	queue.SetVolume(120)
	registry.SetDefaultVolume(50)
	if registry.Get("guild1", valueobjects.SourceYouTube).Volume() != 120 {
		t.Error("Changing the default must not touch existing queues")
	}
}

func TestRegistryGuilds(t *testing.T) {
	registry := entities.NewQueueRegistry()

	registry.Get("guild1", valueobjects.SourceYouTube)
	registry.Get("guild2", valueobjects.SourceSoundCloud)

	if len(registry.Guilds()) != 2 {
		t.Errorf("Expected 2 guilds, got %d", len(registry.Guilds()))
	}
}
