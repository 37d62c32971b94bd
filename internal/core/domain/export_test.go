package domain

var SubdirFor = subdirFor
