package mcp

func (x *Server) SessionCount() int {
	return x.sessionCount()
}
