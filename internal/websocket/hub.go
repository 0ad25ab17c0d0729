package websocket

type Room struct {
	Id      string
	Clients map[string]*WSClient
}

type RoomMessage struct {
	ConversationID string
	Payload        []byte
	Exclude        *WSClient
}

// RoomSubscription carries the room id alongside the client so the hub
// never reads the client's own room field, which the read loop mutates.
type RoomSubscription struct {
	Client         *WSClient
	ConversationID string
}

type Hub struct {
	Rooms      map[string]*Room
	Register   chan RoomSubscription
	Unregister chan RoomSubscription
	Broadcast  chan *RoomMessage
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Register:   make(chan RoomSubscription),
		Unregister: make(chan RoomSubscription),
		Broadcast:  make(chan *RoomMessage),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.Register:
			room, ok := h.Rooms[sub.ConversationID]
			if !ok {
				room = &Room{
					Id:      sub.ConversationID,
					Clients: make(map[string]*WSClient),
				}
				h.Rooms[sub.ConversationID] = room
				setRooms(len(h.Rooms))
			}
			if _, ok := room.Clients[sub.Client.ID]; !ok {
				room.Clients[sub.Client.ID] = sub.Client
				incConnections()
			}

		case sub := <-h.Unregister:
			room, ok := h.Rooms[sub.ConversationID]
			if !ok {
				continue
			}
			if _, ok := room.Clients[sub.Client.ID]; ok {
				delete(room.Clients, sub.Client.ID)
				decConnections()
			}
			if len(room.Clients) == 0 {
				delete(h.Rooms, room.Id)
				setRooms(len(h.Rooms))
			}

		case message := <-h.Broadcast:
			room, ok := h.Rooms[message.ConversationID]
			if !ok {
				continue
			}
			delivered := 0
			for _, client := range room.Clients {
				if client == message.Exclude {
					continue
				}
				if client.Deliver(message.Payload) {
					delivered++
					continue
				}
				// Slow or dead client, cut it loose.
				client.Shutdown()
				delete(room.Clients, client.ID)
				decConnections()
			}
			if delivered > 0 {
				addDelivered(delivered)
			}
			if len(room.Clients) == 0 {
				delete(h.Rooms, room.Id)
				setRooms(len(h.Rooms))
			}
		}
	}
}
